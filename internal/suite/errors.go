package suite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nbenliogludev/boardbot-e2e/internal/boardbot"
)

var (
	ErrNoProducts         = errors.New("no products found")
	ErrNoSuitableProducts = errors.New("no suitable products found")
	ErrNoRelevantProducts = errors.New("no relevant products according to AI")
	ErrBotDetected        = errors.New("blocked by bot detection")
)

// Failure is a terminal assertion failure. Message carries the full
// diagnostic text shown in reports; Kind is one of the sentinels above.
type Failure struct {
	Kind    error
	Message string
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Kind }

func noProductsFailure() *Failure {
	return &Failure{
		Kind:    ErrNoProducts,
		Message: "❌ TEST FAILED: No products found in search results",
	}
}

func noSuitableFailure(products []boardbot.ProductInfo, expected string) *Failure {
	listing := make([]string, len(products))
	for i, p := range products {
		listing[i] = fmt.Sprintf("%s (%s)", p.ProductName, p.Category)
	}
	return &Failure{
		Kind: ErrNoSuitableProducts,
		Message: fmt.Sprintf("❌ TEST FAILED: No suitable products found - 0/%d products match expected category %q. All products: %s",
			len(products), expected, strings.Join(listing, ", ")),
	}
}

func noRelevantFailure(v *Validation) *Failure {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ AI VALIDATION FAILED: None of the %d products are relevant according to AI analysis.\n\nAI Verdicts:", v.Checked)
	for _, pv := range v.Verdicts {
		if pv.Skipped {
			continue
		}
		fmt.Fprintf(&b, "\n  Product %d: %s (%.0f%%) - %s", pv.Index+1, relevanceMark(pv.Verdict.Relevant), pv.Verdict.Confidence, pv.Verdict.Reasoning)
	}
	return &Failure{Kind: ErrNoRelevantProducts, Message: b.String()}
}

func botDetectedFailure(title string) *Failure {
	return &Failure{
		Kind:    ErrBotDetected,
		Message: fmt.Sprintf("❌ TEST FAILED: Navigation blocked by bot detection challenge (page title %q)", title),
	}
}

func relevanceMark(relevant bool) string {
	if relevant {
		return "✅"
	}
	return "❌"
}
