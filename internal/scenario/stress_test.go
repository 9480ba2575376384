package scenario

import (
	"strings"
	"testing"
	"time"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

func growingSnaps(startMRR, weeklyGrowth, burn float64, weeks int) []domain.WeeklySnapshot {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	out := make([]domain.WeeklySnapshot, weeks)
	mrr := startMRR
	for i := range out {
		out[i] = domain.WeeklySnapshot{
			WeekStart: start.AddDate(0, 0, i*7),
			MRR:       mrr,
			BurnRate:  burn,
		}
		mrr *= 1 + weeklyGrowth
	}
	return out
}

func TestRun(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if got := Run(nil, 0); got != nil {
			t.Errorf("Run(nil) = %v, want nil", got)
		}
	})

	t.Run("OrderAndShape", func(t *testing.T) {
		results := Run(growingSnaps(10000, 0.02, 4000, 12), 500000)
		if len(results) != 3 {
			t.Fatalf("len = %d, want 3", len(results))
		}
		want := []domain.ScenarioName{domain.ScenarioBear, domain.ScenarioBase, domain.ScenarioBull}
		for i, r := range results {
			if r.Scenario != want[i] {
				t.Errorf("results[%d].Scenario = %v, want %v", i, r.Scenario, want[i])
			}
			if len(r.KeyRisks) == 0 || len(r.RecommendedActions) == 0 {
				t.Errorf("%s: empty narrative", r.Scenario)
			}
		}
	})

	t.Run("BearWorseThanBull", func(t *testing.T) {
		results := Run(growingSnaps(10000, 0.02, 4000, 12), 500000)
		bear, bull := results[0], results[2]
		if bear.MonthsRunway >= bull.MonthsRunway {
			t.Errorf("bear runway %v not shorter than bull %v", bear.MonthsRunway, bull.MonthsRunway)
		}
		if bear.ProjectedMRR6Mo >= bull.ProjectedMRR6Mo {
			t.Errorf("bear projection %v not below bull %v", bear.ProjectedMRR6Mo, bull.ProjectedMRR6Mo)
		}
	})

	t.Run("ProfitableRunway", func(t *testing.T) {
		results := Run(growingSnaps(50000, 0.01, 0, 8), 500000)
		// Base and bull burn stays zero; bear multiplies zero burn.
		for _, r := range results {
			if r.MonthsRunway != 99.0 {
				t.Errorf("%s: runway = %v, want 99 for zero burn", r.Scenario, r.MonthsRunway)
			}
		}
	})

	t.Run("StrongCompanyReady", func(t *testing.T) {
		// High MRR, healthy growth, modest burn: base should be READY.
		results := Run(growingSnaps(90000, 0.025, 5000, 16), 2_000_000)
		if got := results[1].SeriesAReadiness; got != domain.ReadinessReady {
			t.Errorf("base readiness = %v, want READY", got)
		}
	})

	t.Run("WeakCompanyNotReady", func(t *testing.T) {
		// Tiny, shrinking MRR: nothing qualifies.
		results := Run(growingSnaps(2000, -0.05, 8000, 12), 100000)
		for _, r := range results {
			if r.SeriesAReadiness == domain.ReadinessReady {
				t.Errorf("%s: readiness READY for a shrinking $2k MRR company", r.Scenario)
			}
		}
	})

	t.Run("BearNarrative", func(t *testing.T) {
		results := Run(growingSnaps(10000, 0.02, 4000, 12), 500000)
		joined := strings.Join(results[0].KeyRisks, "\n")
		if !strings.Contains(joined, "Runway shortens from") {
			t.Errorf("bear risks missing runway comparison: %q", joined)
		}
		if !strings.Contains(joined, "Top customer loss") {
			t.Errorf("bear risks missing customer-loss line: %q", joined)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		snaps := growingSnaps(10000, 0.02, 4000, 12)
		a := Run(snaps, 500000)
		b := Run(snaps, 500000)
		for i := range a {
			if a[i].MonthsRunway != b[i].MonthsRunway || a[i].ProjectedMRR6Mo != b[i].ProjectedMRR6Mo {
				t.Errorf("scenario %d diverged between runs", i)
			}
		}
	})
}

func TestWeeklyGrowthRate(t *testing.T) {
	t.Run("Floored", func(t *testing.T) {
		snaps := growingSnaps(100000, -0.5, 0, 6)
		last := snaps[len(snaps)-1].MRR
		if got := weeklyGrowthRate(snaps, last); got != growthFloor {
			t.Errorf("growth = %v, want floor %v", got, growthFloor)
		}
	})

	t.Run("SingleSnapshotDefault", func(t *testing.T) {
		snaps := growingSnaps(10000, 0, 0, 1)
		if got := weeklyGrowthRate(snaps, 10000); got != 0.01 {
			t.Errorf("growth = %v, want default 0.01", got)
		}
	})
}

func TestMonthsRunway(t *testing.T) {
	if got := monthsRunway(100000, 5000); got != 4.6 {
		t.Errorf("monthsRunway = %v, want 4.6", got)
	}
	if got := monthsRunway(100000, 0); got != 99.0 {
		t.Errorf("monthsRunway with zero burn = %v, want 99", got)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{2000, "2,000"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := formatAmount(tc.in); got != tc.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
