package llm

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
	"github.com/ternarybob/arbor"
)

const DefaultAnthropicModel = "claude-sonnet-4-20250514"

type anthropicClient struct {
	log    arbor.ILogger
	opts   Options
	client anthropic.Client
}

func NewAnthropic(log arbor.ILogger, opts Options) (Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}
	if opts.Model == "" {
		opts.Model = DefaultAnthropicModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithRequestTimeout(opts.timeout()),
	}
	if opts.URL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.URL))
	}

	return &anthropicClient{
		log:    log,
		opts:   opts,
		client: anthropic.NewClient(reqOpts...),
	}, nil
}

func (a *anthropicClient) Name() string { return "anthropic" }

func (a *anthropicClient) Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error) {
	request = a.opts.resolve(request)
	start := time.Now()

	prompt := request.Prompt
	if request.JSON {
		prompt += "\n\nRespond with a single JSON object and nothing else."
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(request.Model),
		MaxTokens: int64(request.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if request.Temperature > 0 {
		params.Temperature = anthropic.Float(request.Temperature)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "anthropic messages call with model %q", request.Model)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return nil, ErrEmptyResponse
	}

	return &GenerateResponse{
		Response: out.String(),
		Model:    string(resp.Model),
		Elapsed:  time.Since(start),
	}, nil
}

// Available only checks configuration; a probe would be a billed call.
func (a *anthropicClient) Available(context.Context) bool {
	return a.opts.APIKey != ""
}
