package domain

import "time"

// SurvivalLabel is the qualitative bucket for a survival score.
type SurvivalLabel string

const (
	SurvivalSafe         SurvivalLabel = "SAFE"
	SurvivalLowRisk      SurvivalLabel = "LOW_RISK"
	SurvivalModerateRisk SurvivalLabel = "MODERATE_RISK"
	SurvivalHighRisk     SurvivalLabel = "HIGH_RISK"
	SurvivalCritical     SurvivalLabel = "CRITICAL"
)

// ScoreLabel maps a survival score in [0,100] to its label bucket.
func ScoreLabel(score int) SurvivalLabel {
	switch {
	case score >= 80:
		return SurvivalSafe
	case score >= 65:
		return SurvivalLowRisk
	case score >= 45:
		return SurvivalModerateRisk
	case score >= 25:
		return SurvivalHighRisk
	}
	return SurvivalCritical
}

// SurvivalResult is the output of the Monte Carlo cash-survival simulation.
type SurvivalResult struct {
	Score               int           `json:"score"`
	Label               SurvivalLabel `json:"label"`
	ProbabilityRuin90d  float64       `json:"probabilityRuin90d"`
	ProbabilityRuin180d float64       `json:"probabilityRuin180d"`
	ProbabilityRuin365d float64       `json:"probabilityRuin365d"`
	ExpectedZeroCashDay int           `json:"expectedZeroCashDay"`

	// FundraisingDeadline is absent when the expected zero-cash day is within
	// the typical raise duration.
	FundraisingDeadline *time.Time `json:"fundraisingDeadline,omitempty"`
}
