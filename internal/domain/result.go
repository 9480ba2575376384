package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisResult is the full output bundle for one run. Every collection is
// recomputed from scratch per invocation; callers replace any previously
// persisted entities for the same run identifier.
type AnalysisResult struct {
	RunID uuid.UUID `json:"runId"`

	Snapshots   []WeeklySnapshot  `json:"snapshots"`
	Anomalies   []AnomalyRecord   `json:"anomalies"`
	Survival    *SurvivalResult   `json:"survival,omitempty"`
	Scenarios   []ScenarioResult  `json:"scenarios"`
	FraudAlerts []FraudAlert      `json:"fraudAlerts"`
	Customers   []CustomerProfile `json:"customers"`
	CashFlow    *CashFlowForecast `json:"cashFlow,omitempty"`

	ComputedAt time.Time `json:"computedAt"`
}

// Latest returns the most recent weekly snapshot, or nil when none exist.
func (r *AnalysisResult) Latest() *WeeklySnapshot {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return &r.Snapshots[len(r.Snapshots)-1]
}
