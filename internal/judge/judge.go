package judge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// ErrNoReference means the catalog has no reference product for the
// expected category and suite.
var ErrNoReference = errors.New("no original product reference found")

// Candidate is one scraped product offered for judgement.
type Candidate struct {
	TestID           string
	Query            string
	ExpectedCategory string

	ProductName string
	Category    string
	Description string

	// Index and Total place the candidate within the validated batch.
	Index int
	Total int
}

func (c Candidate) first() bool { return c.Index == 0 }
func (c Candidate) last() bool  { return c.Total > 0 && c.Index == c.Total-1 }

// Verdict is the outcome of a relevance check.
type Verdict struct {
	Relevant        bool     `json:"isRelevant"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	MatchedKeywords []string `json:"matchedKeywords,omitempty"`
	TotalKeywords   int      `json:"totalKeywords,omitempty"`
	Reference       string   `json:"originalProduct,omitempty"`
	AI              bool     `json:"aiValidation"`
}

func (v Verdict) String() string {
	mark := "NOT RELEVANT"
	if v.Relevant {
		mark = "RELEVANT"
	}
	return fmt.Sprintf("%s (%.0f%%) %s", mark, v.Confidence, v.Reasoning)
}

// Judge decides whether a candidate answers the query.
type Judge interface {
	Judge(ctx context.Context, c Candidate) Verdict
}

var suitePattern = regexp.MustCompile(`TC(\d+)\.`)

// SuiteNumber parses the suite from a test id such as "MicroTCA_TC1.2".
// Ids without a suite component map to suite 1.
func SuiteNumber(testID string) int {
	m := suitePattern.FindStringSubmatch(testID)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
