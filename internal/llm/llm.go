package llm

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Client is a single-turn text generation backend.
type Client interface {
	Generate(ctx context.Context, request GenerateRequest) (*GenerateResponse, error)
	// Available is a cheap reachability probe. It never returns an error;
	// callers skip AI work when it reports false.
	Available(ctx context.Context) bool
	Name() string
}

// GenerateRequest carries one prompt. Zero sampling values fall back to the
// client defaults.
type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	MaxTokens   int     `json:"maxTokens"`
	// JSON asks the backend to constrain output to a JSON object.
	JSON bool `json:"json"`
}

type GenerateResponse struct {
	Response string        `json:"response"`
	Model    string        `json:"model"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Options are the settings shared by every backend.
type Options struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

func (o Options) resolve(r GenerateRequest) GenerateRequest {
	if r.Model == "" {
		r.Model = o.Model
	}
	if r.Temperature == 0 {
		r.Temperature = o.Temperature
	}
	if r.TopP == 0 {
		r.TopP = o.TopP
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = o.MaxTokens
	}
	return r
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 120 * time.Second
	}
	return o.Timeout
}
