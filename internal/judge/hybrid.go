package judge

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// CostPerAICall is the rough per-request price used for usage estimates.
const CostPerAICall = 0.01

// HybridOptions choose when the hybrid judge spends an AI call.
type HybridOptions struct {
	// ForceKeyword disables AI entirely.
	ForceKeyword bool
	// RandomSample sends a Threshold fraction of middle products to AI.
	RandomSample bool
	Threshold    float64
}

// HybridJudge uses AI for the first and last candidate of a batch (and an
// optional random sample of the rest) and keywords for everything else.
type HybridJudge struct {
	ai      Judge
	keyword *KeywordJudge
	opts    HybridOptions
	random  func() float64

	mu     sync.Mutex
	aiUsed int
	kwUsed int
}

func NewHybridJudge(ai Judge, keyword *KeywordJudge, opts HybridOptions) *HybridJudge {
	if opts.Threshold == 0 {
		opts.Threshold = 0.3
	}
	return &HybridJudge{
		ai:      ai,
		keyword: keyword,
		opts:    opts,
		random:  rand.Float64,
	}
}

func (h *HybridJudge) Judge(ctx context.Context, c Candidate) Verdict {
	if h.useAI(c) {
		h.count(true)
		return h.ai.Judge(ctx, c)
	}
	h.count(false)
	return h.keyword.Judge(ctx, c)
}

func (h *HybridJudge) useAI(c Candidate) bool {
	if h.opts.ForceKeyword || h.ai == nil {
		return false
	}
	if c.first() || c.last() {
		return true
	}
	return h.opts.RandomSample && h.random() < h.opts.Threshold
}

func (h *HybridJudge) count(ai bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ai {
		h.aiUsed++
	} else {
		h.kwUsed++
	}
}

// UsageStats summarises how often each strategy ran.
type UsageStats struct {
	AIUsed        int     `json:"aiUsed"`
	KeywordUsed   int     `json:"keywordUsed"`
	Total         int     `json:"total"`
	AIPercentage  float64 `json:"aiPercentage"`
	EstimatedCost float64 `json:"estimatedCost"`
}

func (s UsageStats) String() string {
	return fmt.Sprintf("AI %d / keyword %d (%.1f%% AI, est. $%.2f)",
		s.AIUsed, s.KeywordUsed, s.AIPercentage, s.EstimatedCost)
}

func (h *HybridJudge) Stats() UsageStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := UsageStats{
		AIUsed:        h.aiUsed,
		KeywordUsed:   h.kwUsed,
		Total:         h.aiUsed + h.kwUsed,
		EstimatedCost: float64(h.aiUsed) * CostPerAICall,
	}
	if s.Total > 0 {
		s.AIPercentage = float64(s.AIUsed) / float64(s.Total) * 100
	}
	return s
}

func (h *HybridJudge) ResetStats() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.aiUsed = 0
	h.kwUsed = 0
}
