package suite

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nbenliogludev/boardbot-e2e/internal/allure"
	"github.com/nbenliogludev/boardbot-e2e/internal/boardbot"
	"github.com/nbenliogludev/boardbot-e2e/internal/judge"
	"github.com/nbenliogludev/boardbot-e2e/internal/scenario"
)

// MinDescriptionChars is the shortest description worth sending to a judge.
const MinDescriptionChars = 50

// ProductVerdict is the judgement of one validated product.
type ProductVerdict struct {
	Index   int
	Product boardbot.ProductInfo
	Verdict judge.Verdict
	// Skipped means no usable description was found; Verdict is empty.
	Skipped bool
}

// Validation summarizes the relevance pass over the top products.
type Validation struct {
	Ran        bool
	SkipReason string
	Checked    int
	Relevant   int
	Verdicts   []ProductVerdict
	Usage      *judge.UsageStats
}

// Judged counts products that received a verdict.
func (v *Validation) Judged() int {
	n := 0
	for _, pv := range v.Verdicts {
		if !pv.Skipped {
			n++
		}
	}
	return n
}

// Failed reports whether validation produced verdicts and none was relevant.
func (v *Validation) Failed() bool {
	return v != nil && v.Ran && v.Judged() > 0 && v.Relevant == 0
}

type availabilityChecker interface {
	Available(ctx context.Context) bool
}

func (r *Runner) validate(ctx context.Context, t *allure.Test, s scenario.Scenario, products []boardbot.ProductInfo) (*Validation, error) {
	v := &Validation{}

	j := r.judgeFor(s)
	switch {
	case j == nil:
		v.SkipReason = "AI validation disabled (set USE_AI_VALIDATION=true to enable)"
	case len(products) == 0:
		v.SkipReason = "No products to validate with AI"
	default:
		if ac, ok := j.(availabilityChecker); ok && !ac.Available(ctx) {
			v.SkipReason = "AI backend not available - skipping AI validation"
		}
	}
	if v.SkipReason != "" {
		r.logger.Info().Str("scenario", s.ID).Msg(v.SkipReason)
		return v, nil
	}

	v.Ran = true
	v.Checked = min(len(products), r.opts.ValidateCount)
	r.logger.Info().
		Str("scenario", s.ID).
		Int("suite", judge.SuiteNumber(s.ID)).
		Str("category", s.ExpectedCategory).
		Msgf("Validating %d products", v.Checked)

	for i := 0; i < v.Checked; i++ {
		if err := ctx.Err(); err != nil {
			return v, err
		}
		p := products[i]
		pv := ProductVerdict{Index: i, Product: p}

		description := r.describe(ctx, i)
		if utf8.RuneCountInString(description) < MinDescriptionChars {
			r.logger.Warn().Int("product", i+1).Msg("Description too short or not found, skipping validation")
			pv.Skipped = true
			v.Verdicts = append(v.Verdicts, pv)
			t.Parameter(fmt.Sprintf("🤖 AI Product %d", i+1), "⚠️ Skipped - No description available")
			continue
		}

		pv.Verdict = j.Judge(ctx, judge.Candidate{
			TestID:           s.ID,
			Query:            s.Prompt,
			ExpectedCategory: s.ExpectedCategory,
			ProductName:      p.ProductName,
			Category:         p.Category,
			Description:      description,
			Index:            i,
			Total:            v.Checked,
		})
		if pv.Verdict.Relevant {
			v.Relevant++
		}
		v.Verdicts = append(v.Verdicts, pv)

		r.logger.Info().
			Int("product", i+1).
			Str("name", p.ProductName).
			Msg(pv.Verdict.String())

		t.Parameter(fmt.Sprintf("🤖 AI Product %d", i+1),
			fmt.Sprintf("%s %.0f%% - %s", relevanceMark(pv.Verdict.Relevant), pv.Verdict.Confidence, pv.Verdict.Reasoning))
		if err := t.AttachText(fmt.Sprintf("🤖 AI Analysis - Product %d", i+1), allure.TypeText, verdictSummary(pv)); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to attach AI analysis")
		}
	}

	if h, ok := j.(*judge.HybridJudge); ok {
		stats := h.Stats()
		v.Usage = &stats
		t.Parameter("🤖 AI Usage", stats.String())
	}

	t.Parameter("🤖 AI Summary", fmt.Sprintf("%d/%d relevant products", v.Relevant, v.Checked))
	r.logger.Info().Msgf("AI Results: %d/%d products marked as RELEVANT", v.Relevant, v.Checked)
	return v, nil
}

// describe fetches the description of product i. Failures leave it empty
// so the product is skipped rather than failing the batch.
func (r *Runner) describe(ctx context.Context, i int) string {
	text, err := r.page.ProductDescription(ctx, i)
	if err != nil {
		r.logger.Warn().Err(err).Int("product", i+1).Msg("Failed to get product description")
	}
	if err := r.page.CloseProductDetails(ctx); err != nil {
		r.logger.Debug().Err(err).Msg("Close product details failed")
	}
	return strings.TrimSpace(boardbot.CollapseDescription(text))
}

func verdictSummary(pv ProductVerdict) string {
	verdict := "❌ NOT RELEVANT"
	if pv.Verdict.Relevant {
		verdict = "✅ RELEVANT"
	}
	reference := pv.Verdict.Reference
	if reference == "" {
		reference = "Unknown"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Product:** %s\n", pv.Product.ProductName)
	fmt.Fprintf(&b, "**AI Verdict:** %s\n", verdict)
	fmt.Fprintf(&b, "**Confidence:** %.0f%%\n", pv.Verdict.Confidence)
	fmt.Fprintf(&b, "**Reasoning:** %s\n", pv.Verdict.Reasoning)
	fmt.Fprintf(&b, "**Original Product:** %s", reference)
	if len(pv.Verdict.MatchedKeywords) > 0 {
		fmt.Fprintf(&b, "\n**Matched Keywords:** %s", strings.Join(pv.Verdict.MatchedKeywords, ", "))
	}
	return b.String()
}
