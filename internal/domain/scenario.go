package domain

// ScenarioName identifies one of the three fixed stress scenarios.
type ScenarioName string

const (
	ScenarioBear ScenarioName = "bear"
	ScenarioBase ScenarioName = "base"
	ScenarioBull ScenarioName = "bull"
)

// Readiness is the qualitative fundraising-stage label derived from projected
// MRR and burn efficiency.
type Readiness string

const (
	ReadinessReady     Readiness = "READY"
	ReadinessSixMonths Readiness = "6_MONTHS"
	ReadinessNotReady  Readiness = "NOT_READY"
)

// ScenarioResult is one row of the three-scenario stress test.
type ScenarioResult struct {
	Scenario           ScenarioName `json:"scenario"`
	MonthsRunway       float64      `json:"monthsRunway"`
	ProjectedMRR6Mo    float64      `json:"projectedMrr6mo"`
	SeriesAReadiness   Readiness    `json:"seriesAReadiness"`
	KeyRisks           []string     `json:"keyRisks"`
	RecommendedActions []string     `json:"recommendedActions"`
}
