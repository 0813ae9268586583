// Package score combines pain, engagement, and automation-gap sub-scores
// into one weighted lead priority score.
package score

import (
	"math"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

// Weights: pain 50%, engagement 30%, automation gap 20% on a 0-100 scale.
const (
	painWeight       = 5
	engagementWeight = 3
	gapWeight        = 2
)

// Scorer computes the final lead score. Pure, no I/O, never fails.
type Scorer struct {
	hotThreshold  float64
	warmThreshold float64
}

// New creates a Scorer with the configured priority thresholds.
func New(cfg config.ScoreConfig) *Scorer {
	hot := cfg.HotThreshold
	warm := cfg.WarmThreshold
	if hot <= 0 {
		hot = 75
	}
	if warm <= 0 {
		warm = 50
	}
	return &Scorer{hotThreshold: hot, warmThreshold: warm}
}

// Score derives the weighted final score from the merged candidate record.
func (s *Scorer) Score(painScore, likes, comments, gapScore int) model.ScoreResult {
	// Engagement proxy: comments weigh double, capped at 10.
	engagement := float64(likes) + 2*float64(comments)
	engagementScore := math.Min(engagement/100, 10)

	pain := clampInt(painScore, 0, 10)
	gap := clampInt(gapScore, math.MinInt, 10)

	final := float64(pain)*painWeight + engagementScore*engagementWeight + float64(gap)*gapWeight
	final = math.Min(math.Max(final, 0), 100)

	return model.ScoreResult{
		Score:    math.Round(final*10) / 10,
		Priority: s.priority(final),
		Breakdown: model.ScoreBreakdown{
			Pain:       float64(pain),
			Engagement: engagementScore,
			Gap:        float64(gap),
		},
	}
}

// priority partitions [0,100] at the warm and hot thresholds. Both bounds
// are exclusive: a score exactly at the hot threshold is still WARM.
func (s *Scorer) priority(score float64) model.Priority {
	switch {
	case score > s.hotThreshold:
		return model.PriorityHot
	case score > s.warmThreshold:
		return model.PriorityWarm
	default:
		return model.PriorityLow
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
