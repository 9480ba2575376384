package cashflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

func snaps(mrr, burn float64, weeks int) []domain.WeeklySnapshot {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	out := make([]domain.WeeklySnapshot, weeks)
	for i := range out {
		out[i] = domain.WeeklySnapshot{
			WeekStart: start.AddDate(0, 0, i*7),
			MRR:       mrr,
			BurnRate:  burn,
		}
	}
	return out
}

func TestForecast(t *testing.T) {
	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	t.Run("EmptyHistory", func(t *testing.T) {
		f := New(100, 42)
		if got := f.Forecast(nil, nil, 100000, today); got != nil {
			t.Errorf("expected nil without snapshots, got %+v", got)
		}
	})

	t.Run("Shape", func(t *testing.T) {
		f := New(200, 42)
		fc := f.Forecast(snaps(10000, 6000, 10), nil, 300000, today)
		if fc == nil {
			t.Fatal("expected a forecast")
		}
		if len(fc.Points) != horizonWeeks {
			t.Fatalf("points = %d, want %d", len(fc.Points), horizonWeeks)
		}
		for i, p := range fc.Points {
			if p.WeekOffset != i+1 {
				t.Errorf("point %d offset = %d, want %d", i, p.WeekOffset, i+1)
			}
			want := today.AddDate(0, 0, i*7)
			if !p.WeekStart.Equal(want) {
				t.Errorf("point %d week = %v, want %v", i, p.WeekStart, want)
			}
			if p.BalanceP10 > p.BalanceP50 || p.BalanceP50 > p.BalanceP90 {
				t.Errorf("point %d bands not ordered: %+v", i, p)
			}
		}
		if fc.CurrentCash != 300000 {
			t.Errorf("current cash = %v, want supplied balance", fc.CurrentCash)
		}
	})

	t.Run("SurplusCompanyNeverZero", func(t *testing.T) {
		f := New(200, 42)
		// MRR far above burn: median balance grows, never hits zero.
		fc := f.Forecast(snaps(50000, 5000, 10), nil, 100000, today)
		if fc.WeeksUntilZeroP50 != 0 {
			t.Errorf("weeks until zero = %d, want 0 (survives horizon)", fc.WeeksUntilZeroP50)
		}
		last := fc.Points[len(fc.Points)-1]
		if last.BalanceP50 <= 100000 {
			t.Errorf("median balance %v did not grow from 100000", last.BalanceP50)
		}
	})

	t.Run("BurningCompanyHitsZero", func(t *testing.T) {
		f := New(200, 42)
		// $20k/week net burn against $50k cash: dry within ~3 weeks.
		fc := f.Forecast(snaps(1000, 21000, 10), nil, 50000, today)
		if fc.WeeksUntilZeroP50 == 0 {
			t.Fatal("expected the median path to hit zero")
		}
		if fc.WeeksUntilZeroP50 > 5 {
			t.Errorf("weeks until zero = %d, want <= 5", fc.WeeksUntilZeroP50)
		}
	})

	t.Run("CommittedExpensesReduceVariance", func(t *testing.T) {
		f := New(200, 42)
		committed := []domain.CommittedExpense{
			{Name: "rent", Amount: decimal.NewFromInt(8000), Frequency: domain.FrequencyMonthly},
			{Name: "payroll", Amount: decimal.NewFromInt(3000), Frequency: domain.FrequencyWeekly},
		}
		fc := f.Forecast(snaps(10000, 6000, 10), committed, 300000, today)
		wantWeekly := 8000/4.33 + 3000
		if diff := fc.TotalCommittedWeekly - round2(wantWeekly); diff > 0.01 || diff < -0.01 {
			t.Errorf("committed weekly = %v, want %v", fc.TotalCommittedWeekly, round2(wantWeekly))
		}
		// Committed spend above the trailing burn average zeroes the variable
		// component, but expected outflows still carry the committed total.
		if fc.Points[0].ExpectedOutflows < fc.TotalCommittedWeekly {
			t.Errorf("outflows %v below committed %v", fc.Points[0].ExpectedOutflows, fc.TotalCommittedWeekly)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		ledger := snaps(10000, 6000, 10)
		a := New(200, 42).Forecast(ledger, nil, 300000, today)
		b := New(200, 42).Forecast(ledger, nil, 300000, today)
		for i := range a.Points {
			if a.Points[i] != b.Points[i] {
				t.Errorf("point %d diverged between runs:\n%+v\n%+v", i, a.Points[i], b.Points[i])
			}
		}
	})
}

func TestEstimateCash(t *testing.T) {
	t.Run("NetBurnSizing", func(t *testing.T) {
		// Net burn 8000/week: 26 weeks = 208000.
		got := estimateCash(snaps(2000, 10000, 6))
		if got != 208000 {
			t.Errorf("estimateCash = %v, want 208000", got)
		}
	})

	t.Run("Floor", func(t *testing.T) {
		got := estimateCash(snaps(10000, 10500, 6))
		if got != cashEstimateFloor {
			t.Errorf("estimateCash = %v, want floor %v", got, cashEstimateFloor)
		}
	})
}

func TestWeeklyAmount(t *testing.T) {
	cases := []struct {
		freq domain.ExpenseFrequency
		want float64
	}{
		{domain.FrequencyWeekly, 5200},
		{domain.FrequencyMonthly, 5200 / 4.33},
		{domain.FrequencyQuarterly, 400},
		{domain.FrequencyAnnual, 100},
		{"", 5200 / 4.33}, // unknown treated as monthly
	}
	for _, tc := range cases {
		e := domain.CommittedExpense{Amount: decimal.NewFromInt(5200), Frequency: tc.freq}
		if got := e.WeeklyAmount(); got != tc.want {
			t.Errorf("WeeklyAmount(%q) = %v, want %v", tc.freq, got, tc.want)
		}
	}
}
