package suite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/boardbot-e2e/internal/config"
	"github.com/nbenliogludev/boardbot-e2e/internal/judge"
	"github.com/nbenliogludev/boardbot-e2e/internal/scenario"
)

func TestNewJudges_Disabled(t *testing.T) {
	judges, err := NewJudges(context.Background(), &config.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, judges)
}

func TestNewJudges_KeywordStrategy(t *testing.T) {
	cfg := &config.Config{AI: config.AIConfig{Enabled: true, Strategy: config.StrategyKeyword}}
	judges, err := NewJudges(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, judges)

	s := scenario.Scenario{ID: "MicroTCA_TC1.1", AIValidation: true, Keywords: []string{"mch", "ipmi"}}
	j := judges(s)
	require.IsType(t, &judge.KeywordJudge{}, j)
	v := j.Judge(context.Background(), judge.Candidate{Description: "MCH with IPMI shelf management"})
	assert.True(t, v.Relevant)

	s.AIValidation = false
	assert.Nil(t, judges(s))

	s.AIValidation = true
	s.Keywords = nil
	assert.Nil(t, judges(s))
}

func TestPrepare(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{
		Site:    config.SiteConfig{BaseURL: "https://www.picmg.org/"},
		AI:      config.AIConfig{Backend: config.BackendOllama},
		Reports: config.ReportsConfig{Dir: filepath.Join(root, "reports"), AllureDir: filepath.Join(root, "allure"), Retention: 1},
	}
	require.NoError(t, os.MkdirAll(cfg.Reports.Dir, 0o755))
	for _, name := range []string{"a.md", "b.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Reports.Dir, name), []byte("#"), 0o644))
	}

	out, err := Prepare(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Store)
	require.NotNil(t, out.Results)

	left, err := os.ReadDir(cfg.Reports.Dir)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	env, err := os.ReadFile(filepath.Join(cfg.Reports.AllureDir, "environment.properties"))
	require.NoError(t, err)
	assert.Contains(t, string(env), "AI\\ Validation=disabled")
	assert.Contains(t, string(env), "Base\\ URL=https://www.picmg.org/")

	_, err = os.Stat(filepath.Join(cfg.Reports.AllureDir, "categories.json"))
	assert.NoError(t, err)
}

func TestEnvironment_ReportsStrategy(t *testing.T) {
	cfg := &config.Config{AI: config.AIConfig{Enabled: true, Strategy: config.StrategyHybrid, Backend: config.BackendGemini}}
	env := Environment(cfg)
	assert.Equal(t, "hybrid", env["AI Validation"])
	assert.Equal(t, "gemini", env["AI Backend"])
	assert.Equal(t, "Chromium", env["Browser"])
}
