package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/nbenliogludev/boardbot-e2e/internal/boardbot"
)

// TestReport classifies one run's products against the expected category.
type TestReport struct {
	Prompt             string                 `json:"prompt"`
	ExpectedCategory   string                 `json:"expectedCategory"`
	TotalResults       int                    `json:"totalResults"`
	SuitableProducts   int                    `json:"suitableProducts"`
	UnsuitableProducts int                    `json:"unsuitableProducts"`
	OriginalProduct    int                    `json:"originalProduct"` // -1 when not found
	Products           []boardbot.ProductInfo `json:"products"`
	Warnings           []string               `json:"warnings"`
}

// CategoryMatches is the suitability rule: case-insensitive substring containment.
func CategoryMatches(category, expected string) bool {
	return strings.Contains(strings.ToLower(category), strings.ToLower(expected))
}

// Generate builds the report. Every product is counted exactly once as
// suitable or unsuitable; the original product is the first whose URL
// contains referenceSlug.
func Generate(prompt string, products []boardbot.ProductInfo, expectedCategory, referenceSlug string) TestReport {
	r := TestReport{
		Prompt:           prompt,
		ExpectedCategory: expectedCategory,
		TotalResults:     len(products),
		OriginalProduct:  -1,
		Products:         append([]boardbot.ProductInfo{}, products...),
		Warnings:         []string{},
	}

	for i, p := range products {
		if CategoryMatches(p.Category, expectedCategory) {
			r.SuitableProducts++
		} else {
			r.UnsuitableProducts++
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				`⚠️ WARNING: Product #%d "%s" has category "%s" (Expected: %s)`,
				i+1, p.ProductName, p.Category, expectedCategory,
			))
		}

		if r.OriginalProduct < 0 && referenceSlug != "" && strings.Contains(p.MoreInfoURL, referenceSlug) {
			r.OriginalProduct = i
		}
	}

	return r
}

// IsSuitable reports whether product i matches the expected category.
func (r TestReport) IsSuitable(i int) bool {
	return i >= 0 && i < len(r.Products) && CategoryMatches(r.Products[i].Category, r.ExpectedCategory)
}

// OriginalFound returns "Yes (Product #n)" or "No".
func (r TestReport) OriginalFound() string {
	if r.OriginalProduct >= 0 {
		return fmt.Sprintf("Yes (Product #%d)", r.OriginalProduct+1)
	}
	return "No"
}

// Latency buckets used for labelling response speed.
const (
	LatencyFast   = "fast"
	LatencyNormal = "normal"
	LatencySlow   = "slow"
)

func LatencyClass(d time.Duration) string {
	switch {
	case d < 8*time.Second:
		return LatencyFast
	case d < 15*time.Second:
		return LatencyNormal
	default:
		return LatencySlow
	}
}

func latencyBadge(d time.Duration) string {
	switch LatencyClass(d) {
	case LatencyFast:
		return "⚡ (Fast)"
	case LatencyNormal:
		return "✅ (Normal)"
	default:
		return "⚠️ (Slow)"
	}
}
