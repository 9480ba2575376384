// Package survival runs the Monte Carlo cash-runway simulation: randomized
// weekly cash flows drawn from the observed burn distribution, aggregated
// into ruin probabilities, a 0-100 survival score, and a fundraising
// deadline.
package survival

import (
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

const (
	// minHistory is the snapshot count below which no simulation runs.
	minHistory = 3

	// maxWeeks is the simulation horizon: one year plus buffer.
	maxWeeks = 54

	// raiseDurationDays is the typical time a fundraise takes to close.
	raiseDurationDays = 180

	// pathSeedStride decorrelates per-path generators while keeping every
	// path's stream independent of scheduling order.
	pathSeedStride = 0x9e3779b97f4a7c15
)

// Simulator holds the tunables of a Monte Carlo run. The zero value is not
// usable; construct with New.
type Simulator struct {
	Paths   int
	Seed    uint64
	Workers int
}

// New returns a simulator with the given path count and seed. Workers
// defaults to a small fixed pool; paths below 1 fall back to 1000.
func New(paths int, seed uint64, workers int) *Simulator {
	if paths < 1 {
		paths = 1000
	}
	if workers < 1 {
		workers = 4
	}
	return &Simulator{Paths: paths, Seed: seed, Workers: workers}
}

// EstimateCash infers the current cash position from burn history when no
// balance is supplied: assume an initial seed round sized at 18 months of the
// latest MRR (or twice everything burned so far, whichever is larger), less
// what has been burned, floored at two weeks of MRR.
func EstimateCash(snapshots []domain.WeeklySnapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	lastMRR := snapshots[len(snapshots)-1].MRR
	if lastMRR <= 0 {
		lastMRR = 1.0
	}
	var totalBurned float64
	for _, s := range snapshots {
		totalBurned += s.BurnRate
	}
	initialCash := math.Max(lastMRR*18.0, totalBurned*2.0)
	return math.Max(initialCash-totalBurned, lastMRR*2.0)
}

// Run simulates weekly cash trajectories and aggregates them into a survival
// result. A positive cashBalance overrides the inferred cash position; today
// anchors the fundraising deadline. Returns nil when history is too short to
// estimate a burn distribution.
func (s *Simulator) Run(snapshots []domain.WeeklySnapshot, cashBalance float64, today time.Time) *domain.SurvivalResult {
	if len(snapshots) < minHistory {
		return nil
	}

	// Weekly net cash change is -burn: burn is already net of revenue.
	netWeekly := make([]float64, len(snapshots))
	for i, snap := range snapshots {
		netWeekly[i] = -snap.BurnRate
	}

	mu := stat.Mean(netWeekly, nil)
	sigma := popStdDev(netWeekly)
	if len(netWeekly) == 1 {
		sigma = math.Abs(mu) * 0.2
	}
	if sigma < 1.0 {
		sigma = 1.0
	}

	currentCash := cashBalance
	if currentCash <= 0 {
		currentCash = EstimateCash(snapshots)
	}

	days := make([]int, s.Paths)
	sem := make(chan struct{}, s.Workers)
	var wg sync.WaitGroup
	for path := 0; path < s.Paths; path++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(path int) {
			defer wg.Done()
			defer func() { <-sem }()
			days[path] = s.simulatePath(path, currentCash, mu, sigma)
		}(path)
	}
	wg.Wait()

	var ruin90, ruin180, ruin365 int
	for _, d := range days {
		if d <= 90 {
			ruin90++
		}
		if d <= 180 {
			ruin180++
		}
		if d <= 365 {
			ruin365++
		}
	}
	n := float64(s.Paths)
	p90 := float64(ruin90) / n
	p180 := float64(ruin180) / n
	p365 := float64(ruin365) / n

	expectedZeroDay := medianInt(days)

	score := int(math.Round((1.0 - p365) * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	result := &domain.SurvivalResult{
		Score:               score,
		Label:               domain.ScoreLabel(score),
		ProbabilityRuin90d:  round4(p90),
		ProbabilityRuin180d: round4(p180),
		ProbabilityRuin365d: round4(p365),
		ExpectedZeroCashDay: min(expectedZeroDay, maxWeeks*7),
	}

	if deadlineDays := expectedZeroDay - raiseDurationDays; deadlineDays > 0 {
		deadline := today.AddDate(0, 0, deadlineDays)
		result.FundraisingDeadline = &deadline
	}
	return result
}

// simulatePath walks one cash trajectory and returns the day cash first hits
// zero, or horizon+1 day when it survives the whole window. Each path owns a
// generator seeded from its index so results do not depend on goroutine
// scheduling.
func (s *Simulator) simulatePath(path int, cash, mu, sigma float64) int {
	dist := distuv.Normal{
		Mu:    mu,
		Sigma: sigma,
		Src:   rand.NewSource(s.Seed + uint64(path)*pathSeedStride),
	}
	for week := 1; week <= maxWeeks; week++ {
		cash += dist.Rand()
		if cash <= 0 {
			return week * 7
		}
	}
	return maxWeeks*7 + 1
}

// popStdDev is the population standard deviation; stat.StdDev applies
// Bessel's correction, but the burn history here is the whole population.
func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := stat.Mean(values, nil)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func medianInt(values []int) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
