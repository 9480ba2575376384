// Package scenario runs the fixed three-way stress test (bear, base, bull)
// over the latest KPI snapshot: pure arithmetic, no randomness, no external
// calls.
package scenario

import (
	"fmt"
	"math"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
	"github.com/daniel-st3/ai-cfo-agent/internal/survival"
)

// multipliers adjust the latest MRR, burn, and growth rate per scenario.
type multipliers struct {
	mrr    float64
	burn   float64
	growth float64
}

var scenarioParams = []struct {
	name domain.ScenarioName
	mult multipliers
}{
	{domain.ScenarioBear, multipliers{mrr: 0.80, burn: 1.15, growth: 0.30}},
	{domain.ScenarioBase, multipliers{mrr: 1.00, burn: 1.00, growth: 1.00}},
	{domain.ScenarioBull, multipliers{mrr: 1.20, burn: 0.85, growth: 2.50}},
}

const (
	weeksPerMonth   = 4.33
	projectionWeeks = 26

	// growthFloor caps how fast MRR is allowed to shrink in a projection.
	growthFloor = -0.15
)

// Run produces one result per scenario, always in bear/base/bull order. A
// positive cashBalance overrides the inferred cash position. Returns nil for
// an empty history.
func Run(snapshots []domain.WeeklySnapshot, cashBalance float64) []domain.ScenarioResult {
	if len(snapshots) == 0 {
		return nil
	}

	latest := snapshots[len(snapshots)-1]
	lastMRR := math.Max(latest.MRR, 1.0)
	lastBurn := math.Max(latest.BurnRate, 0.0)
	growthRate := weeklyGrowthRate(snapshots, lastMRR)

	currentCash := cashBalance
	if currentCash <= 0 {
		currentCash = survival.EstimateCash(snapshots)
	}
	baseRunway := monthsRunway(currentCash, lastBurn)

	results := make([]domain.ScenarioResult, 0, len(scenarioParams))
	for _, p := range scenarioParams {
		adjMRR := lastMRR * p.mult.mrr
		adjBurn := lastBurn * p.mult.burn
		adjGrowth := growthRate * p.mult.growth

		months := monthsRunway(currentCash, adjBurn)
		projMRR := round2(adjMRR * math.Pow(1.0+adjGrowth, projectionWeeks))
		readiness := seriesAReadiness(projMRR, adjBurn, adjGrowth)
		risks, actions := narrative(p.name, readiness, lastMRR, baseRunway, months)

		results = append(results, domain.ScenarioResult{
			Scenario:           p.name,
			MonthsRunway:       months,
			ProjectedMRR6Mo:    projMRR,
			SeriesAReadiness:   readiness,
			KeyRisks:           risks,
			RecommendedActions: actions,
		})
	}
	return results
}

// weeklyGrowthRate estimates recent weekly MRR growth: the four-week average
// when enough history exists, the single-step delta with two snapshots, and a
// 1% default otherwise. Always floored at growthFloor.
func weeklyGrowthRate(snapshots []domain.WeeklySnapshot, lastMRR float64) float64 {
	switch {
	case len(snapshots) >= 4:
		prev := math.Max(snapshots[len(snapshots)-4].MRR, 0.001)
		return math.Max(delta(lastMRR, prev)/4.0, growthFloor)
	case len(snapshots) >= 2:
		prev := math.Max(snapshots[len(snapshots)-2].MRR, 0.001)
		return math.Max(delta(lastMRR, prev), growthFloor)
	}
	return 0.01
}

// monthsRunway is cash over monthly burn, one decimal. A non-burning company
// reports 99 months.
func monthsRunway(cash, weeklyBurn float64) float64 {
	if weeklyBurn <= 0 {
		return 99.0
	}
	return math.Round(cash/weeklyBurn/weeksPerMonth*10) / 10
}

// seriesAReadiness buckets a scenario by projected MRR and burn multiple
// (annualized burn over annualized new ARR).
func seriesAReadiness(projMRR, adjBurn, weeklyGrowth float64) domain.Readiness {
	burnMultiple := safeDiv(adjBurn*52.0, math.Max(projMRR*weeklyGrowth*52.0, 1.0), 99.0)
	switch {
	case projMRR >= 100_000 && burnMultiple <= 2.0:
		return domain.ReadinessReady
	case projMRR >= 50_000 || weeklyGrowth >= 0.03:
		return domain.ReadinessSixMonths
	}
	return domain.ReadinessNotReady
}

func narrative(name domain.ScenarioName, readiness domain.Readiness, lastMRR, baseRunway, months float64) (risks, actions []string) {
	switch name {
	case domain.ScenarioBear:
		risks = []string{
			fmt.Sprintf("Top customer loss reduces MRR by $%s/week", formatAmount(lastMRR*0.20)),
			"Increased cost pressure compresses gross margin",
			fmt.Sprintf("Runway shortens from %.0f to %.0f months", baseRunway, months),
		}
		actions = []string{
			"Identify and protect top 3 revenue accounts with dedicated success plans",
			"Initiate 90-day cost reduction targeting software and marketing spend",
			"Begin fundraising conversations immediately if not already in progress",
		}
	case domain.ScenarioBase:
		if readiness == domain.ReadinessNotReady {
			risks = []string{
				"Current growth rate insufficient for Series A qualification",
				"Burn trajectory requires monitoring",
			}
		} else {
			risks = []string{"Execution risk on maintaining current growth and retention rates"}
		}
		actions = []string{
			"Maintain current acquisition and retention strategies with weekly KPI reviews",
			"Build 3-month pipeline of qualified enterprise prospects to accelerate MRR",
		}
	default: // bull
		risks = []string{
			"Rapid hiring ahead of revenue creates fragile burn profile",
			"Growth deceleration risk if top acquisition channels saturate",
		}
		actions = []string{
			"Invest in sales capacity now to capture the growth window",
			"Build 6-month cash reserve before Series A to negotiate from strength",
			"Instrument product for expansion revenue: NRR above 120% unlocks premium multiples",
		}
	}
	return risks, actions
}

// formatAmount renders a dollar amount with thousands separators and no
// decimals.
func formatAmount(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

func delta(current, previous float64) float64 {
	if math.Abs(previous) < 1e-9 {
		return 0
	}
	return (current - previous) / previous
}

func safeDiv(numerator, denominator, fallback float64) float64 {
	if math.Abs(denominator) < 1e-9 {
		return fallback
	}
	return numerator / denominator
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
