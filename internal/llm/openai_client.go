package llm

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
)

const maxRateLimitAttempts = 5

type OpenAIClient struct {
	log    arbor.ILogger
	opts   Options
	client *openai.Client
	// backoff is how long to sleep before retry attempt n after a 429.
	backoff func(attempt int) time.Duration
}

func NewOpenAIClient(log arbor.ILogger, opts Options) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.URL != "" {
		cfg.BaseURL = opts.URL
	}

	return &OpenAIClient{
		log:    log,
		opts:   opts,
		client: openai.NewClientWithConfig(cfg),
		backoff: func(attempt int) time.Duration {
			return time.Duration(3*(1<<attempt)) * time.Second
		},
	}, nil
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error) {
	request = c.opts.resolve(request)
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model: request.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: request.Prompt},
		},
		Temperature: float32(request.Temperature),
		TopP:        float32(request.TopP),
		MaxTokens:   request.MaxTokens,
	}
	if request.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	var err error

	for attempt := 0; attempt < maxRateLimitAttempts; attempt++ {
		resp, err = c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		if !isRateLimited(err) {
			return nil, errors.Wrapf(err, "openai chat completion with model %q", request.Model)
		}

		wait := c.backoff(attempt)
		c.log.Warn().Int("attempt", attempt+1).Msgf("OpenAI rate limited, retrying in %s", wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "openai still rate limited after %d attempts", maxRateLimitAttempts)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.Wrap(ErrEmptyResponse, "no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	return &GenerateResponse{
		Response: content,
		Model:    resp.Model,
		Elapsed:  time.Since(start),
	}, nil
}

// Available lists models, which is the cheapest authenticated call.
func (c *OpenAIClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	if _, err := c.client.ListModels(ctx); err != nil {
		c.log.Debug().Err(err).Msg("OpenAI not reachable")
		return false
	}
	return true
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == 429 {
		return true
	}
	return strings.Contains(err.Error(), "429")
}
