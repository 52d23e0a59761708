package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/ternarybob/arbor"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "picmg-expert"

	availabilityTimeout = 2 * time.Second
)

type RoundTripFn func(req *http.Request) (*http.Response, error)

func (f RoundTripFn) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type ollamaClient struct {
	log    arbor.ILogger
	opts   Options
	client *api.Client
}

// NewOllama talks to a local or self-hosted Ollama server. The API key, when
// set, is sent as a bearer token for servers behind an auth proxy.
func NewOllama(log arbor.ILogger, opts Options) (Client, error) {
	opts.URL = lo.If(opts.URL != "", opts.URL).Else(DefaultOllamaURL)
	opts.Model = lo.If(opts.Model != "", opts.Model).Else(DefaultOllamaModel)

	baseURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ollama url %q", opts.URL)
	}

	apiKey := opts.APIKey
	client := api.NewClient(baseURL, &http.Client{
		Timeout: opts.timeout(),
		Transport: RoundTripFn(func(req *http.Request) (*http.Response, error) {
			if apiKey != "" {
				req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
			}
			return http.DefaultTransport.RoundTrip(req)
		}),
	})

	return &ollamaClient{
		log:    log,
		opts:   opts,
		client: client,
	}, nil
}

func (o *ollamaClient) Name() string { return "ollama" }

func (o *ollamaClient) Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error) {
	request = o.opts.resolve(request)
	start := time.Now()

	req := &api.GenerateRequest{
		Model:  request.Model,
		Prompt: request.Prompt,
		Stream: lo.ToPtr(false),
		Options: map[string]interface{}{
			"temperature": request.Temperature,
			"num_predict": request.MaxTokens,
			"top_p":       request.TopP,
		},
	}
	if request.JSON {
		req.Format = json.RawMessage(`"json"`)
	}

	resBuf := strings.Builder{}
	err := o.client.Generate(ctx, req, func(response api.GenerateResponse) error {
		resBuf.WriteString(response.Response)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "ollama generate with model %q", request.Model)
	}
	if strings.TrimSpace(resBuf.String()) == "" {
		return nil, ErrEmptyResponse
	}

	o.log.Debug().
		Str("model", request.Model).
		Int("response_length", resBuf.Len()).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("Ollama generation completed")

	return &GenerateResponse{
		Response: resBuf.String(),
		Model:    request.Model,
		Elapsed:  time.Since(start),
	}, nil
}

// Available lists local models (/api/tags) with a short timeout.
func (o *ollamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	if _, err := o.client.List(ctx); err != nil {
		o.log.Debug().Err(err).Str("url", o.opts.URL).Msg("Ollama not reachable")
		return false
	}
	return true
}
