package judge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/ternarybob/arbor"

	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/llm"
)

const noReferenceReasoning = "No original product reference found - skipping AI validation"

// AIJudge asks a generative model to compare a candidate with the reference
// product of its category and suite. It fails open: any backend or parse
// error yields a relevant verdict with zero confidence.
type AIJudge struct {
	client  llm.Client
	catalog *Catalog
	logger  arbor.ILogger
}

func NewAIJudge(client llm.Client, catalog *Catalog, logger arbor.ILogger) *AIJudge {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &AIJudge{client: client, catalog: catalog, logger: logger}
}

// Available reports whether the backend answers its probe.
func (a *AIJudge) Available(ctx context.Context) bool {
	return a.client != nil && a.client.Available(ctx)
}

type modelVerdict struct {
	IsRelevant *bool   `json:"isRelevant"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func (a *AIJudge) Judge(ctx context.Context, c Candidate) Verdict {
	ref, err := a.catalog.Lookup(c.ExpectedCategory, SuiteNumber(c.TestID))
	if err != nil {
		a.logger.Warn().Err(err).Str("category", c.ExpectedCategory).Msg("Reference product missing")
		return Verdict{
			Relevant:   true,
			Confidence: 0,
			Reasoning:  noReferenceReasoning,
			Reference:  "Unknown",
			AI:         true,
		}
	}

	v, err := a.ask(ctx, ref, c)
	if err != nil {
		a.logger.Warn().Err(err).Str("product", c.ProductName).Msg("AI validation error")
		return Verdict{
			Relevant:   true,
			Confidence: 0,
			Reasoning:  fmt.Sprintf("AI validation failed: %v", err),
			Reference:  ref.Slug(),
			AI:         true,
		}
	}
	return v
}

func (a *AIJudge) ask(ctx context.Context, ref Reference, c Candidate) (Verdict, error) {
	if a.client == nil {
		return Verdict{}, errors.New("no AI backend configured")
	}

	prompt := llm.RelevancePrompt(llm.RelevanceInput{
		ReferenceName:        ref.Name(),
		ReferenceCategory:    ref.Category,
		ReferenceDescription: ref.Description,
		Query:                c.Query,
		ProductName:          c.ProductName,
		ProductCategory:      c.Category,
		ProductDescription:   c.Description,
	})

	resp, err := a.client.Generate(ctx, llm.GenerateRequest{Prompt: prompt, JSON: true})
	if err != nil {
		return Verdict{}, err
	}

	parsed, err := ParseModelVerdict(resp.Response)
	if err != nil {
		return Verdict{}, err
	}
	parsed.Reference = ref.Slug()
	return parsed, nil
}

// ParseModelVerdict reads the model's JSON answer. Surrounding prose or
// markdown fences are skipped; a missing isRelevant field is an error.
func ParseModelVerdict(raw string) (Verdict, error) {
	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return Verdict{}, errors.Errorf("no JSON object in model response: %q", llm.Truncate(raw, 200))
	}

	var mv modelVerdict
	if err := json.Unmarshal([]byte(obj), &mv); err != nil {
		return Verdict{}, errors.Wrap(err, "decode model verdict")
	}
	if mv.IsRelevant == nil {
		return Verdict{}, errors.New("model verdict has no isRelevant field")
	}

	conf := mv.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}

	return Verdict{
		Relevant:   *mv.IsRelevant,
		Confidence: conf,
		Reasoning:  mv.Reasoning,
		AI:         true,
	}, nil
}
