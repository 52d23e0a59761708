package llm

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type geminiClient struct {
	log    arbor.ILogger
	opts   Options
	client *genai.Client
}

func NewGemini(ctx context.Context, log arbor.ILogger, opts Options) (Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.URL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.URL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize genai client")
	}

	return &geminiClient{
		log:    log,
		opts:   opts,
		client: client,
	}, nil
}

func (g *geminiClient) Name() string { return "gemini" }

func (g *geminiClient) Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error) {
	request = g.opts.resolve(request)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout())
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(request.Temperature)),
		MaxOutputTokens: int32(request.MaxTokens),
	}
	if request.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(request.TopP))
	}
	if request.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, request.Model, genai.Text(request.Prompt), cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "gemini generate with model %q", request.Model)
	}

	var out strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					out.WriteString(part.Text)
				}
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return nil, ErrEmptyResponse
	}

	return &GenerateResponse{
		Response: out.String(),
		Model:    request.Model,
		Elapsed:  time.Since(start),
	}, nil
}

// Available only checks configuration; a probe would be a billed call.
func (g *geminiClient) Available(context.Context) bool {
	return g.opts.APIKey != ""
}
