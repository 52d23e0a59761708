package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// MinKeywordMatches is how many keywords a description needs to be relevant.
const MinKeywordMatches = 2

// KeywordJudge counts case-insensitive substring hits of a fixed keyword list.
type KeywordJudge struct {
	Keywords []string
}

func NewKeywordJudge(keywords []string) *KeywordJudge {
	return &KeywordJudge{Keywords: keywords}
}

func (k *KeywordJudge) Judge(_ context.Context, c Candidate) Verdict {
	return k.Match(c.Description)
}

// Match scores description against the keyword list.
func (k *KeywordJudge) Match(description string) Verdict {
	lower := strings.ToLower(description)
	found := lo.Filter(k.Keywords, func(kw string, _ int) bool {
		return kw != "" && strings.Contains(lower, strings.ToLower(kw))
	})

	var score float64
	if len(k.Keywords) > 0 {
		score = float64(len(found)) / float64(len(k.Keywords)) * 100
	}

	return Verdict{
		Relevant:        len(found) >= MinKeywordMatches,
		Confidence:      score,
		Reasoning:       fmt.Sprintf("Keywords found: %d/%d", len(found), len(k.Keywords)),
		MatchedKeywords: found,
		TotalKeywords:   len(k.Keywords),
	}
}
