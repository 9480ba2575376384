// Package cashflow produces the rolling 13-week cash forecast: deterministic
// MRR inflows against committed plus stochastic variable outflows, simulated
// with per-path seeded draws and summarized as P10/P50/P90 balance bands.
package cashflow

import (
	"math"
	"sort"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

const (
	defaultPaths = 500
	horizonWeeks = 13

	// trailingWeeks caps how much KPI history feeds the burn averages.
	trailingWeeks = 8

	// cashEstimateWeeks sizes the fallback cash estimate at ~6 months of net
	// burn.
	cashEstimateWeeks = 26

	cashEstimateFloor = 50_000.0
	defaultCash       = 200_000.0

	pathSeedStride = 0x9e3779b97f4a7c15
)

// Forecaster holds the simulation tunables.
type Forecaster struct {
	Paths int
	Seed  uint64
}

// New returns a forecaster with the given path count and seed. Paths below 1
// fall back to the default.
func New(paths int, seed uint64) *Forecaster {
	if paths < 1 {
		paths = defaultPaths
	}
	return &Forecaster{Paths: paths, Seed: seed}
}

// Forecast simulates weekly cash balances over the 13-week horizon. A
// positive cashBalance overrides the inferred position; committed expenses
// are converted to weekly equivalents and subtracted from the variable burn.
// today anchors the week dates. Returns nil when there are no snapshots.
func (f *Forecaster) Forecast(snapshots []domain.WeeklySnapshot, committed []domain.CommittedExpense, cashBalance float64, today time.Time) *domain.CashFlowForecast {
	if len(snapshots) == 0 {
		return nil
	}

	trailing := snapshots
	if len(trailing) > trailingWeeks {
		trailing = trailing[len(trailing)-trailingWeeks:]
	}

	var mrrSum float64
	var burns []float64
	for _, s := range trailing {
		mrrSum += s.MRR
		if s.BurnRate > 0 {
			burns = append(burns, s.BurnRate)
		}
	}
	avgMRR := mrrSum / float64(len(trailing))

	avgBurn := avgMRR * 0.4
	if len(burns) > 0 {
		avgBurn = stat.Mean(burns, nil)
	}
	stdBurn := avgBurn * 0.20
	if len(burns) > 1 {
		if sd := popStdDev(burns); sd > stdBurn {
			stdBurn = sd
		}
	}
	if stdBurn < 1 {
		stdBurn = 1
	}

	currentCash := cashBalance
	if currentCash <= 0 {
		currentCash = estimateCash(snapshots)
	}

	var committedWeekly float64
	for _, e := range committed {
		committedWeekly += e.WeeklyAmount()
	}
	variableBurn := math.Max(avgBurn-committedWeekly, 0)

	// balances[p] walks one path; week offsets share the same draw stream
	// per path so aggregation is order-independent.
	finals := make([][]float64, horizonWeeks)
	for w := range finals {
		finals[w] = make([]float64, f.Paths)
	}
	for p := 0; p < f.Paths; p++ {
		dist := distuv.Normal{
			Mu:    variableBurn,
			Sigma: stdBurn,
			Src:   rand.NewSource(f.Seed + uint64(p)*pathSeedStride),
		}
		balance := currentCash
		for w := 0; w < horizonWeeks; w++ {
			outflow := math.Max(dist.Rand(), 0) + committedWeekly
			balance = math.Max(balance+avgMRR-outflow, 0)
			finals[w][p] = balance
		}
	}

	points := make([]domain.CashFlowPoint, 0, horizonWeeks)
	weeksUntilZero := 0
	for w := 0; w < horizonWeeks; w++ {
		p10, p50, p90 := percentiles(finals[w])
		point := domain.CashFlowPoint{
			WeekOffset:       w + 1,
			WeekStart:        today.AddDate(0, 0, w*7),
			BalanceP10:       round2(p10),
			BalanceP50:       round2(p50),
			BalanceP90:       round2(p90),
			ExpectedInflows:  round2(avgMRR),
			ExpectedOutflows: round2(committedWeekly + variableBurn),
		}
		if weeksUntilZero == 0 && point.BalanceP50 <= 0 {
			weeksUntilZero = point.WeekOffset
		}
		points = append(points, point)
	}

	return &domain.CashFlowForecast{
		CurrentCash:          round2(currentCash),
		TotalCommittedWeekly: round2(committedWeekly),
		WeeksUntilZeroP50:    weeksUntilZero,
		Points:               points,
	}
}

// estimateCash sizes the cash position at ~6 months of trailing net burn
// with a floor, used when the caller supplies no balance.
func estimateCash(snapshots []domain.WeeklySnapshot) float64 {
	trailing := snapshots
	if len(trailing) > 4 {
		trailing = trailing[len(trailing)-4:]
	}
	if len(trailing) == 0 {
		return defaultCash
	}
	var burnSum, mrrSum float64
	for _, s := range trailing {
		burnSum += s.BurnRate
		mrrSum += s.MRR
	}
	n := float64(len(trailing))
	netBurn := math.Max(burnSum/n-mrrSum/n, 0)
	return math.Max(netBurn*cashEstimateWeeks, cashEstimateFloor)
}

// percentiles returns the P10/P50/P90 of a sample, sorting a copy.
func percentiles(sample []float64) (p10, p50, p90 float64) {
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)
	p10 = stat.Quantile(0.10, stat.LinInterp, sorted, nil)
	p50 = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	p90 = stat.Quantile(0.90, stat.LinInterp, sorted, nil)
	return p10, p50, p90
}

func popStdDev(values []float64) float64 {
	mean := stat.Mean(values, nil)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
