package domain

import "time"

// MetricNames lists the seven KPI metrics in canonical order. Detectors and
// delta maps iterate this slice so output ordering is stable.
var MetricNames = []string{"mrr", "arr", "churn_rate", "burn_rate", "gross_margin", "cac", "ltv"}

// WeeklySnapshot is the canonical KPI record for one Monday-aligned week.
// All metrics are non-negative except GrossMargin, which may be negative.
type WeeklySnapshot struct {
	WeekStart   time.Time `json:"weekStart"`
	MRR         float64   `json:"mrr"`
	ARR         float64   `json:"arr"`
	ChurnRate   float64   `json:"churnRate"`
	BurnRate    float64   `json:"burnRate"`
	GrossMargin float64   `json:"grossMargin"`
	CAC         float64   `json:"cac"`
	LTV         float64   `json:"ltv"`

	// Relative change versus one and four periods back, keyed by metric name.
	// Zero when the prior period's value is ~0.
	WoWDelta map[string]float64 `json:"wowDelta"`
	MoMDelta map[string]float64 `json:"momDelta"`

	// Weekly aggregates carried for downstream analyses.
	Revenue         float64 `json:"revenue"`
	ExpensesTotal   float64 `json:"expensesTotal"`
	NewCustomers    int     `json:"newCustomers"`
	ActiveCustomers int     `json:"activeCustomers"`
}

// Metric returns the named KPI value. Unknown names return 0.
func (s *WeeklySnapshot) Metric(name string) float64 {
	switch name {
	case "mrr":
		return s.MRR
	case "arr":
		return s.ARR
	case "churn_rate":
		return s.ChurnRate
	case "burn_rate":
		return s.BurnRate
	case "gross_margin":
		return s.GrossMargin
	case "cac":
		return s.CAC
	case "ltv":
		return s.LTV
	}
	return 0
}
