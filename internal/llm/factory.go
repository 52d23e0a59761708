package llm

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/config"
)

// New builds the backend selected in cfg and wraps it in a rate limiter.
func New(ctx context.Context, cfg config.AIConfig, log arbor.ILogger) (Client, error) {
	if log == nil {
		log = common.NopLogger()
	}

	opts := Options{
		URL:         cfg.URL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}

	var (
		client Client
		err    error
	)
	switch cfg.Backend {
	case config.BackendOllama, "":
		client, err = NewOllama(log, opts)
	case config.BackendOpenAI:
		// the ollama default URL does not apply to hosted backends
		if opts.URL == DefaultOllamaURL {
			opts.URL = ""
		}
		client, err = NewOpenAIClient(log, opts)
	case config.BackendAnthropic:
		if opts.URL == DefaultOllamaURL {
			opts.URL = ""
		}
		client, err = NewAnthropic(log, opts)
	case config.BackendGemini:
		if opts.URL == DefaultOllamaURL {
			opts.URL = ""
		}
		client, err = NewGemini(ctx, log, opts)
	default:
		return nil, errors.Errorf("unknown ai backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to init %s backend", cfg.Backend)
	}

	log.Info().
		Str("backend", client.Name()).
		Str("model", opts.Model).
		Int("requests_per_minute", cfg.RequestsPerMinute).
		Msg("AI backend configured")

	return WithRateLimit(client, cfg.RequestsPerMinute), nil
}

type limitedClient struct {
	Client
	limiter *rate.Limiter
}

// WithRateLimit spaces Generate calls to at most perMinute per minute.
// A non-positive value disables limiting.
func WithRateLimit(c Client, perMinute int) Client {
	if perMinute <= 0 {
		return c
	}
	return &limitedClient{
		Client:  c,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (l *limitedClient) Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}
	return l.Client.Generate(ctx, request)
}
