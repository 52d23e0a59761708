package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/config"
)

const verdictJSON = `{"isRelevant": true, "confidence": 87, "reasoning": "Same AMC form factor."}`

func TestOllama_Generate(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		resp, _ := json.Marshal(map[string]interface{}{
			"model":    "picmg-expert",
			"response": verdictJSON,
			"done":     true,
		})
		fmt.Fprintln(w, string(resp))
	}))
	defer srv.Close()

	c, err := NewOllama(common.NopLogger(), Options{
		URL:         srv.URL,
		APIKey:      "secret",
		Temperature: 0.2,
		TopP:        0.9,
		MaxTokens:   150,
	})
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hello", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, verdictJSON, resp.Response)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, DefaultOllamaModel, got["model"])
	assert.Equal(t, "hello", got["prompt"])
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, false, got["stream"])

	opts, ok := got["options"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 0.2, opts["temperature"], 1e-9)
	assert.InDelta(t, 150, opts["num_predict"], 1e-9)
	assert.InDelta(t, 0.9, opts["top_p"], 1e-9)
}

func TestOllama_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"model":"m","response":"","done":true}`)
	}))
	defer srv.Close()

	c, err := NewOllama(common.NopLogger(), Options{URL: srv.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOllama_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, `{"error":"model not loaded"}`)
	}))
	defer srv.Close()

	c, err := NewOllama(common.NopLogger(), Options{URL: srv.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestOllama_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			fmt.Fprint(w, `{"models":[]}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	c, err := NewOllama(common.NopLogger(), Options{URL: srv.URL})
	require.NoError(t, err)
	assert.True(t, c.Available(context.Background()))

	srv.Close()
	assert.False(t, c.Available(context.Background()))
}

func openAIServer(t *testing.T, failures int32) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			fmt.Fprint(w, `{"object":"list","data":[]}`)
		case "/v1/chat/completions":
			n := atomic.AddInt32(&calls, 1)
			if n <= failures {
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"error":{"message":"Rate limit reached","type":"requests"}}`)
				return
			}
			resp, _ := json.Marshal(map[string]interface{}{
				"id":     "chatcmpl-1",
				"object": "chat.completion",
				"model":  "gpt-4o-mini",
				"choices": []map[string]interface{}{{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]string{"role": "assistant", "content": verdictJSON},
				}},
			})
			w.Write(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return srv, &calls
}

func TestOpenAI_Generate(t *testing.T) {
	srv, calls := openAIServer(t, 0)
	defer srv.Close()

	c, err := NewOpenAIClient(common.NopLogger(), Options{URL: srv.URL + "/v1", APIKey: "sk-test"})
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hi", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, verdictJSON, resp.Response)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.True(t, c.Available(context.Background()))
}

func TestOpenAI_RetriesOn429(t *testing.T) {
	srv, calls := openAIServer(t, 2)
	defer srv.Close()

	c, err := NewOpenAIClient(common.NopLogger(), Options{URL: srv.URL + "/v1", APIKey: "sk-test"})
	require.NoError(t, err)
	c.backoff = func(int) time.Duration { return time.Millisecond }

	resp, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Response)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestOpenAI_GivesUpAfterMaxAttempts(t *testing.T) {
	srv, calls := openAIServer(t, 100)
	defer srv.Close()

	c, err := NewOpenAIClient(common.NopLogger(), Options{URL: srv.URL + "/v1", APIKey: "sk-test"})
	require.NoError(t, err)
	c.backoff = func(int) time.Duration { return time.Millisecond }

	_, err = c.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	assert.Error(t, err)
	assert.Equal(t, int32(maxRateLimitAttempts), atomic.LoadInt32(calls))
}

func TestOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(common.NopLogger(), Options{})
	assert.Error(t, err)
}

func TestAnthropic_Generate(t *testing.T) {
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		key = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		resp, _ := json.Marshal(map[string]interface{}{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       DefaultAnthropicModel,
			"stop_reason": "end_turn",
			"content":     []map[string]string{{"type": "text", "text": verdictJSON}},
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 20},
		})
		w.Write(resp)
	}))
	defer srv.Close()

	c, err := NewAnthropic(common.NopLogger(), Options{URL: srv.URL, APIKey: "ak-test", MaxTokens: 150})
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hi", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, verdictJSON, resp.Response)
	assert.Equal(t, "ak-test", key)
	assert.True(t, c.Available(context.Background()))
}

func geminiServer(t *testing.T, parts []map[string]string, body *map[string]interface{}, key *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/models/"+DefaultGeminiModel+":generateContent"), r.URL.Path)
		*key = r.Header.Get("X-Goog-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(body))

		w.Header().Set("Content-Type", "application/json")
		resp, _ := json.Marshal(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content":      map[string]interface{}{"role": "model", "parts": parts},
				"finishReason": "STOP",
			}},
		})
		w.Write(resp)
	}))
}

func TestGemini_Generate(t *testing.T) {
	var body map[string]interface{}
	var key string
	srv := geminiServer(t, []map[string]string{{"text": verdictJSON}}, &body, &key)
	defer srv.Close()

	c, err := NewGemini(context.Background(), common.NopLogger(), Options{URL: srv.URL, APIKey: "gk-test", MaxTokens: 150})
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), GenerateRequest{Prompt: "hi", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, verdictJSON, resp.Response)
	assert.Equal(t, DefaultGeminiModel, resp.Model)
	assert.Equal(t, "gk-test", key)

	gen, ok := body["generationConfig"].(map[string]interface{})
	require.True(t, ok, "generationConfig missing: %v", body)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.EqualValues(t, 150, gen["maxOutputTokens"])
	assert.True(t, c.Available(context.Background()))
	assert.Equal(t, "gemini", c.Name())
}

func TestGemini_EmptyCandidate(t *testing.T) {
	var body map[string]interface{}
	var key string
	srv := geminiServer(t, []map[string]string{}, &body, &key)
	defer srv.Close()

	c, err := NewGemini(context.Background(), common.NopLogger(), Options{URL: srv.URL, APIKey: "gk-test"})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	gen, _ := body["generationConfig"].(map[string]interface{})
	_, hasMIME := gen["responseMimeType"]
	assert.False(t, hasMIME)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.AIConfig{Backend: "bard"}, nil)
	assert.Error(t, err)
}

func TestNew_HostedWithoutKey(t *testing.T) {
	for _, backend := range []string{config.BackendOpenAI, config.BackendAnthropic, config.BackendGemini} {
		_, err := New(context.Background(), config.AIConfig{Backend: backend}, nil)
		assert.Error(t, err, backend)
	}
}

type countingClient struct {
	calls int32
}

func (c *countingClient) Generate(context.Context, GenerateRequest) (*GenerateResponse, error) {
	atomic.AddInt32(&c.calls, 1)
	return &GenerateResponse{Response: "{}"}, nil
}
func (c *countingClient) Available(context.Context) bool { return true }
func (c *countingClient) Name() string                   { return "counting" }

func TestWithRateLimit(t *testing.T) {
	inner := &countingClient{}
	assert.Same(t, inner, WithRateLimit(inner, 0))

	limited := WithRateLimit(inner, 600) // one every 100ms, burst 1
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := limited.Generate(context.Background(), GenerateRequest{})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, int32(3), inner.calls)
	assert.Equal(t, "counting", limited.Name())
}

func TestWithRateLimit_Cancelled(t *testing.T) {
	limited := WithRateLimit(&countingClient{}, 1)
	_, err := limited.Generate(context.Background(), GenerateRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = limited.Generate(ctx, GenerateRequest{})
	assert.Error(t, err)
}
