package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://www.picmg.org/", cfg.Site.BaseURL)
	assert.Equal(t, 1920, cfg.Site.ViewportWidth)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 50*time.Millisecond, cfg.Timing.KeystrokeDelay)
	assert.Equal(t, 20*time.Second, cfg.Timing.ResultsTimeout)
	assert.Equal(t, 5*time.Second, cfg.Timing.TableTimeout)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, BackendOllama, cfg.AI.Backend)
	assert.Equal(t, StrategyAI, cfg.AI.Strategy)
	assert.InDelta(t, 0.3, cfg.AI.SampleThreshold, 1e-9)
	assert.Equal(t, "http://localhost:11434", cfg.AI.URL)
	assert.Equal(t, 5, cfg.AI.ValidateCount)
	assert.Equal(t, 100, cfg.Reports.Retention)
	assert.Equal(t, "test-results/reports", cfg.Reports.Dir)
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv("USE_AI_VALIDATION", "true")
	t.Setenv("OLLAMA_URL", "http://gpu-box:11434")
	t.Setenv("OLLAMA_MODEL", "picmg-expert")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "http://gpu-box:11434", cfg.AI.URL)
	assert.Equal(t, "picmg-expert", cfg.AI.Model)
}

func TestLoad_HostedBackendKeyFallback(t *testing.T) {
	t.Setenv("BOARDBOT_AI_BACKEND", "anthropic")
	t.Setenv("BOARDBOT_AI_ENABLED", "true")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, BackendAnthropic, cfg.AI.Backend)
	assert.Equal(t, "sk-ant-test", cfg.AI.APIKey)
}

func TestLoad_HostedBackendWithoutKey(t *testing.T) {
	t.Setenv("BOARDBOT_AI_BACKEND", "openai")
	t.Setenv("BOARDBOT_AI_ENABLED", "true")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai.api_key is required")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[site]
base_url = "http://localhost:8080/"

[reports]
retention = 10
dir = "out/reports"

[timing]
keystroke_delay = "10ms"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boardbot.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/", cfg.Site.BaseURL)
	assert.Equal(t, 10, cfg.Reports.Retention)
	assert.Equal(t, "out/reports", cfg.Reports.Dir)
	assert.Equal(t, 10*time.Millisecond, cfg.Timing.KeystrokeDelay)
	// untouched sections keep defaults
	assert.Equal(t, 5*time.Second, cfg.Timing.CookieTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.AI.Backend = "bard" }, "unknown ai.backend"},
		{"zero retention", func(c *Config) { c.Reports.Retention = 0 }, "reports.retention"},
		{"zero validate count", func(c *Config) { c.AI.ValidateCount = 0 }, "ai.validate_count"},
		{"missing base url", func(c *Config) { c.Site.BaseURL = "" }, "site.base_url"},
		{"gemini disabled without key", func(c *Config) { c.AI.Backend = BackendGemini }, ""},
		{"unknown strategy", func(c *Config) { c.AI.Strategy = "vibes" }, "unknown ai.strategy"},
		{"keyword strategy needs no key", func(c *Config) {
			c.AI.Enabled = true
			c.AI.Strategy = StrategyKeyword
			c.AI.Backend = BackendOpenAI
		}, ""},
		{"hybrid strategy needs key", func(c *Config) {
			c.AI.Enabled = true
			c.AI.Strategy = StrategyHybrid
			c.AI.Backend = BackendAnthropic
		}, "ai.api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Site:    SiteConfig{BaseURL: "https://example.com"},
				AI:      AIConfig{Strategy: StrategyAI, Backend: BackendOllama, ValidateCount: 5},
				Reports: ReportsConfig{Retention: 100},
			}
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
