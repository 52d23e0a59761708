package suite

import (
	"fmt"
	"runtime"

	"github.com/ternarybob/arbor"

	"github.com/nbenliogludev/boardbot-e2e/internal/allure"
	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/config"
	"github.com/nbenliogludev/boardbot-e2e/internal/report"
)

// Outputs are the shared sinks for one suite run.
type Outputs struct {
	Store   *report.Store
	Results *allure.Writer
}

// Prepare runs once before the suite: it prunes old reports down to the
// retention cap and seeds the Allure results directory with environment
// and category files.
func Prepare(cfg *config.Config, logger arbor.ILogger) (*Outputs, error) {
	if logger == nil {
		logger = common.NopLogger()
	}

	store := report.NewStore(cfg.Reports.Dir, logger)
	removed, err := store.Prune(cfg.Reports.Retention)
	if err != nil {
		return nil, fmt.Errorf("prune reports: %w", err)
	}
	if len(removed) > 0 {
		logger.Info().Int("removed", len(removed)).Int("kept", cfg.Reports.Retention).Msg("Old reports pruned")
	}

	results, err := allure.NewWriter(cfg.Reports.AllureDir)
	if err != nil {
		return nil, err
	}
	if err := results.WriteEnvironment(Environment(cfg)); err != nil {
		return nil, err
	}
	if err := results.WriteCategories(allure.DefaultCategories); err != nil {
		return nil, err
	}

	return &Outputs{Store: store, Results: results}, nil
}

// Environment is the key/value set shown on the Allure overview page.
func Environment(cfg *config.Config) map[string]string {
	validation := "disabled"
	if cfg.AI.Enabled {
		validation = cfg.AI.Strategy
	}
	return map[string]string{
		"Base URL":      cfg.Site.BaseURL,
		"Browser":       "Chromium",
		"Headless":      fmt.Sprint(cfg.Browser.Headless),
		"AI Validation": validation,
		"AI Backend":    cfg.AI.Backend,
		"OS":            runtime.GOOS + "/" + runtime.GOARCH,
		"Go":            runtime.Version(),
	}
}
