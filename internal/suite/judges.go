package suite

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/config"
	"github.com/nbenliogludev/boardbot-e2e/internal/judge"
	"github.com/nbenliogludev/boardbot-e2e/internal/llm"
	"github.com/nbenliogludev/boardbot-e2e/internal/scenario"
)

// JudgeFunc returns the relevance judge for a scenario, or nil when the
// scenario should not be validated. Only scenarios flagged ai_validation
// are validated, whatever the strategy.
type JudgeFunc func(s scenario.Scenario) judge.Judge

// NewJudges wires the configured relevance strategy. Validation is off
// (nil JudgeFunc) unless ai.enabled is set.
func NewJudges(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (JudgeFunc, error) {
	if !cfg.AI.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = common.NopLogger()
	}

	if cfg.AI.Strategy == config.StrategyKeyword {
		return keywordJudges, nil
	}

	client, err := llm.New(ctx, cfg.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("init AI backend: %w", err)
	}
	catalog, err := judge.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load reference catalog: %w", err)
	}
	ai := judge.NewAIJudge(client, catalog, logger)

	if cfg.AI.Strategy == config.StrategyHybrid {
		opts := judge.HybridOptions{
			RandomSample: cfg.AI.RandomSample,
			Threshold:    cfg.AI.SampleThreshold,
		}
		return func(s scenario.Scenario) judge.Judge {
			if !s.AIValidation {
				return nil
			}
			return judge.NewHybridJudge(ai, judge.NewKeywordJudge(s.Keywords), opts)
		}, nil
	}

	return func(s scenario.Scenario) judge.Judge {
		if !s.AIValidation {
			return nil
		}
		return ai
	}, nil
}

func keywordJudges(s scenario.Scenario) judge.Judge {
	if !s.AIValidation || len(s.Keywords) == 0 {
		return nil
	}
	return judge.NewKeywordJudge(s.Keywords)
}
