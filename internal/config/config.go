package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the suite and the CLI need to drive BoardBot.
type Config struct {
	Site      SiteConfig      `mapstructure:"site"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Timing    TimingConfig    `mapstructure:"timing"`
	AI        AIConfig        `mapstructure:"ai"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Scenarios ScenariosConfig `mapstructure:"scenarios"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SiteConfig describes the target website and how we present ourselves to it.
type SiteConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	AcceptLanguage string `mapstructure:"accept_language"`
	ViewportWidth  int    `mapstructure:"viewport_width"`
	ViewportHeight int    `mapstructure:"viewport_height"`
}

type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	SlowMo         time.Duration `mapstructure:"slow_mo"`
	VideoDir       string        `mapstructure:"video_dir"`
	InstallDrivers bool          `mapstructure:"install_drivers"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	TestTimeout    time.Duration `mapstructure:"test_timeout"`
}

// TimingConfig holds the human-paced delays and the independent wait budgets.
type TimingConfig struct {
	KeystrokeDelay  time.Duration `mapstructure:"keystroke_delay"`
	PreClickPause   time.Duration `mapstructure:"pre_click_pause"`
	PostClickPause  time.Duration `mapstructure:"post_click_pause"`
	PreSubmitPause  time.Duration `mapstructure:"pre_submit_pause"`
	CookieTimeout   time.Duration `mapstructure:"cookie_timeout"`
	ResultsTimeout  time.Duration `mapstructure:"results_timeout"`
	TableTimeout    time.Duration `mapstructure:"table_timeout"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	NewTabTimeout   time.Duration `mapstructure:"new_tab_timeout"`
	TabSettleDelay  time.Duration `mapstructure:"tab_settle_delay"`
	NavigationPause time.Duration `mapstructure:"navigation_pause"`
}

// AIConfig selects and tunes the relevance backend.
type AIConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	Strategy          string  `mapstructure:"strategy"` // ai, keyword, hybrid
	Backend           string  `mapstructure:"backend"`  // ollama, openai, anthropic, gemini
	Model             string  `mapstructure:"model"`
	URL               string  `mapstructure:"url"`
	APIKey            string  `mapstructure:"api_key"`
	Temperature       float64 `mapstructure:"temperature"`
	TopP              float64 `mapstructure:"top_p"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	ValidateCount     int     `mapstructure:"validate_count"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`

	// hybrid strategy only
	RandomSample    bool    `mapstructure:"random_sample"`
	SampleThreshold float64 `mapstructure:"sample_threshold"`

	Timeout time.Duration `mapstructure:"timeout"`
}

type ReportsConfig struct {
	Dir       string `mapstructure:"dir"`
	Retention int    `mapstructure:"retention"`
	AllureDir string `mapstructure:"allure_dir"`
	HTMLDir   string `mapstructure:"html_dir"`
	Artifacts string `mapstructure:"artifacts"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type ScenariosConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

const (
	StrategyAI      = "ai"
	StrategyKeyword = "keyword"
	StrategyHybrid  = "hybrid"
)

const (
	BackendOllama    = "ollama"
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
)

// Load reads boardbot.toml (optional), then BOARDBOT_* env vars and the
// legacy variable names used by the launcher scripts.
func Load(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("boardbot")
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("BOARDBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	resolveBackendKey(v, &cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("ai.enabled", "BOARDBOT_AI_ENABLED", "USE_AI_VALIDATION")
	_ = v.BindEnv("ai.url", "BOARDBOT_AI_URL", "OLLAMA_URL")
	_ = v.BindEnv("ai.model", "BOARDBOT_AI_MODEL", "OLLAMA_MODEL")
	_ = v.BindEnv("ai.api_key", "BOARDBOT_AI_API_KEY")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")
}

// resolveBackendKey falls back to the vendor-specific key variable when no
// explicit ai.api_key was given.
func resolveBackendKey(v *viper.Viper, cfg *Config) {
	if cfg.AI.APIKey != "" {
		return
	}
	switch cfg.AI.Backend {
	case BackendOpenAI:
		cfg.AI.APIKey = v.GetString("openai_api_key")
	case BackendAnthropic:
		cfg.AI.APIKey = v.GetString("anthropic_api_key")
	case BackendGemini:
		cfg.AI.APIKey = v.GetString("gemini_api_key")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://www.picmg.org/")
	v.SetDefault("site.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	v.SetDefault("site.accept_language", "en-US,en;q=0.9")
	v.SetDefault("site.viewport_width", 1920)
	v.SetDefault("site.viewport_height", 1080)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo", "0s")
	v.SetDefault("browser.video_dir", "test-results/artifacts/videos")
	v.SetDefault("browser.install_drivers", true)
	v.SetDefault("browser.default_timeout", "60s")
	v.SetDefault("browser.test_timeout", "2m")

	v.SetDefault("timing.keystroke_delay", "50ms")
	v.SetDefault("timing.pre_click_pause", "500ms")
	v.SetDefault("timing.post_click_pause", "300ms")
	v.SetDefault("timing.pre_submit_pause", "500ms")
	v.SetDefault("timing.cookie_timeout", "5s")
	v.SetDefault("timing.results_timeout", "20s")
	v.SetDefault("timing.table_timeout", "5s")
	v.SetDefault("timing.settle_delay", "500ms")
	v.SetDefault("timing.new_tab_timeout", "5s")
	v.SetDefault("timing.tab_settle_delay", "1s")
	v.SetDefault("timing.navigation_pause", "2s")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.strategy", StrategyAI)
	v.SetDefault("ai.backend", BackendOllama)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.url", "http://localhost:11434")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.top_p", 0.9)
	v.SetDefault("ai.max_tokens", 150)
	v.SetDefault("ai.validate_count", 5)
	v.SetDefault("ai.requests_per_minute", 30)
	v.SetDefault("ai.random_sample", false)
	v.SetDefault("ai.sample_threshold", 0.3)
	v.SetDefault("ai.timeout", "120s")

	v.SetDefault("reports.dir", "test-results/reports")
	v.SetDefault("reports.retention", 100)
	v.SetDefault("reports.allure_dir", "allure-results")
	v.SetDefault("reports.html_dir", "test-results/html-report")
	v.SetDefault("reports.artifacts", "test-results/artifacts")

	v.SetDefault("catalog.path", "products/list.json")
	v.SetDefault("scenarios.path", "scenarios/scenarios.toml")

	v.SetDefault("logging.level", "info")
}

// Validate checks the configuration for values the suite cannot work with.
func Validate(cfg *Config) error {
	if cfg.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url is required")
	}
	if cfg.Reports.Retention <= 0 {
		return fmt.Errorf("reports.retention must be positive, got %d", cfg.Reports.Retention)
	}
	if cfg.AI.ValidateCount <= 0 {
		return fmt.Errorf("ai.validate_count must be positive, got %d", cfg.AI.ValidateCount)
	}

	switch cfg.AI.Strategy {
	case StrategyAI, StrategyKeyword, StrategyHybrid:
	default:
		return fmt.Errorf("unknown ai.strategy %q", cfg.AI.Strategy)
	}

	switch cfg.AI.Backend {
	case BackendOllama:
	case BackendOpenAI, BackendAnthropic, BackendGemini:
		if cfg.AI.Enabled && cfg.AI.Strategy != StrategyKeyword && cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required for the %s backend", cfg.AI.Backend)
		}
	default:
		return fmt.Errorf("unknown ai.backend %q", cfg.AI.Backend)
	}

	return nil
}
