package fraud

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func tx(week int, cat domain.Category, amount float64) domain.Transaction {
	return domain.Transaction{
		Date:     monday.AddDate(0, 0, week*7),
		Category: cat,
		Amount:   decimal.NewFromFloat(amount),
	}
}

// baseline builds weeks of unremarkable ledger activity: revenue plus varied
// expenses that trip no rule.
func baseline(weeks int) []domain.Transaction {
	var txs []domain.Transaction
	for w := 0; w < weeks; w++ {
		jitter := float64(w%5) * 17.13
		txs = append(txs,
			tx(w, domain.CategorySubscriptionRevenue, 10000+jitter),
			tx(w, domain.CategorySalaryExpense, -(4200.50 + jitter)),
			tx(w, domain.CategorySoftwareExpense, -(830.25 + jitter)),
			tx(w, domain.CategoryContractorExpense, -(1100.75 + jitter)),
		)
	}
	return txs
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(BuiltinRules())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func alertsFor(t *testing.T, e *Engine, txs []domain.Transaction, pattern domain.FraudPattern) []domain.FraudAlert {
	t.Helper()
	all, err := e.Scan(txs)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var out []domain.FraudAlert
	for _, a := range all {
		if a.Pattern == pattern {
			out = append(out, a)
		}
	}
	return out
}

func TestNewEngine(t *testing.T) {
	t.Run("Builtins", func(t *testing.T) {
		mustEngine(t)
	})

	t.Run("BadExpression", func(t *testing.T) {
		_, err := NewEngine([]Rule{{Pattern: "broken", Expr: "amount_cents +"}})
		if err == nil {
			t.Fatal("expected compile error")
		}
	})

	t.Run("NonBoolExpression", func(t *testing.T) {
		_, err := NewEngine([]Rule{{Pattern: "numeric", Expr: "amount_cents + 1"}})
		if err == nil {
			t.Fatal("expected type error for non-bool expression")
		}
		if !strings.Contains(err.Error(), "bool") {
			t.Errorf("error = %v, want mention of bool", err)
		}
	})
}

func TestScanEmpty(t *testing.T) {
	e := mustEngine(t)
	alerts, err := e.Scan(nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if alerts != nil {
		t.Errorf("expected nil for empty ledger, got %d alerts", len(alerts))
	}
}

func TestCleanLedgerQuiet(t *testing.T) {
	e := mustEngine(t)
	alerts, err := e.Scan(baseline(8))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("clean ledger raised %d alerts: %+v", len(alerts), alerts)
	}
}

func TestRoundNumber(t *testing.T) {
	e := mustEngine(t)

	t.Run("ExpenseFires", func(t *testing.T) {
		txs := append(baseline(8), tx(3, domain.CategorySoftwareExpense, -5000))
		alerts := alertsFor(t, e, txs, domain.PatternRoundNumber)
		if len(alerts) != 1 {
			t.Fatalf("len = %d, want 1", len(alerts))
		}
		a := alerts[0]
		if a.Severity != domain.SeverityHigh {
			t.Errorf("severity = %v, want HIGH", a.Severity)
		}
		if a.Category != domain.CategorySoftwareExpense {
			t.Errorf("category = %v", a.Category)
		}
		if !strings.Contains(a.Description, "Perfectly round $5,000") {
			t.Errorf("description = %q", a.Description)
		}
	})

	t.Run("RevenueIgnored", func(t *testing.T) {
		txs := append(baseline(8), tx(3, domain.CategorySubscriptionRevenue, 5000))
		if alerts := alertsFor(t, e, txs, domain.PatternRoundNumber); len(alerts) != 0 {
			t.Errorf("revenue-side round amount raised %d alerts", len(alerts))
		}
	})

	t.Run("FractionalIgnored", func(t *testing.T) {
		// 3999.999... style amounts must not round into a hit.
		txs := append(baseline(8), tx(3, domain.CategorySoftwareExpense, -4000.004))
		if alerts := alertsFor(t, e, txs, domain.PatternRoundNumber); len(alerts) != 0 {
			t.Errorf("fractional amount raised %d alerts", len(alerts))
		}
	})

	t.Run("BelowThresholdIgnored", func(t *testing.T) {
		txs := append(baseline(8), tx(3, domain.CategorySoftwareExpense, -500))
		if alerts := alertsFor(t, e, txs, domain.PatternRoundNumber); len(alerts) != 0 {
			t.Errorf("sub-$1000 amount raised %d alerts", len(alerts))
		}
	})
}

func TestVelocitySpike(t *testing.T) {
	e := mustEngine(t)
	// Steady marketing spend, then a 5x week.
	var txs []domain.Transaction
	for w := 0; w < 6; w++ {
		txs = append(txs, tx(w, domain.CategoryMarketingExpense, -2000.50))
	}
	txs = append(txs, tx(6, domain.CategoryMarketingExpense, -10002.50))

	alerts := alertsFor(t, e, txs, domain.PatternVelocitySpike)
	if len(alerts) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(alerts), alerts)
	}
	a := alerts[0]
	if !a.WeekStart.Equal(monday.AddDate(0, 0, 6*7)) {
		t.Errorf("week = %v, want spike week", a.WeekStart)
	}
	if !strings.Contains(a.Description, "spike") || !strings.Contains(a.Description, "5.0x") {
		t.Errorf("description = %q", a.Description)
	}
}

func TestVelocityShortHistory(t *testing.T) {
	e := mustEngine(t)
	// Only three weeks of a category: below the generation gate.
	var txs []domain.Transaction
	for w := 0; w < 2; w++ {
		txs = append(txs, tx(w, domain.CategoryMarketingExpense, -100.50))
	}
	txs = append(txs, tx(2, domain.CategoryMarketingExpense, -9000.50))
	if alerts := alertsFor(t, e, txs, domain.PatternVelocitySpike); len(alerts) != 0 {
		t.Errorf("short category history raised %d alerts", len(alerts))
	}
}

func TestDuplicateAmount(t *testing.T) {
	e := mustEngine(t)
	txs := append(baseline(8),
		tx(4, domain.CategorySoftwareExpense, -433.33),
		tx(4, domain.CategorySoftwareExpense, -433.33),
	)
	alerts := alertsFor(t, e, txs, domain.PatternDuplicateAmount)
	if len(alerts) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(alerts), alerts)
	}
	a := alerts[0]
	if a.Severity != domain.SeverityMedium {
		t.Errorf("severity = %v, want MEDIUM", a.Severity)
	}
	if !strings.Contains(a.Description, "appears 2x") {
		t.Errorf("description = %q", a.Description)
	}
}

func TestZeroRevenueWeek(t *testing.T) {
	e := mustEngine(t)
	txs := baseline(8)
	// Week 9: heavy spend, no revenue row at all.
	txs = append(txs,
		tx(9, domain.CategorySalaryExpense, -9000.50),
		tx(9, domain.CategorySoftwareExpense, -3000.25),
	)
	alerts := alertsFor(t, e, txs, domain.PatternZeroRevenueWeek)
	if len(alerts) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(alerts), alerts)
	}
	a := alerts[0]
	if a.Category != domain.CategorySubscriptionRevenue {
		t.Errorf("category = %v, want subscription_revenue", a.Category)
	}
	if !a.Amount.IsZero() {
		t.Errorf("amount = %v, want 0", a.Amount)
	}
}

func TestContractorRatio(t *testing.T) {
	e := mustEngine(t)
	txs := append(baseline(8),
		tx(9, domain.CategorySubscriptionRevenue, 10000),
		tx(9, domain.CategorySalaryExpense, -2000.50),
		tx(9, domain.CategoryContractorExpense, -8000.50),
	)
	alerts := alertsFor(t, e, txs, domain.PatternContractorRatio)
	if len(alerts) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(alerts), alerts)
	}
	a := alerts[0]
	if a.Severity != domain.SeverityLow {
		t.Errorf("severity = %v, want LOW", a.Severity)
	}
	if !strings.Contains(a.Description, "salary") {
		t.Errorf("description = %q", a.Description)
	}
}

func TestWeekRulesStayIndependent(t *testing.T) {
	e := mustEngine(t)
	// Week 9 trips both weekly rules at once: no revenue row, above-median
	// spend, and contractor pay four times salary. Each rule must report
	// exactly one alert with its own category and wording.
	txs := append(baseline(8),
		tx(9, domain.CategorySalaryExpense, -2000.50),
		tx(9, domain.CategoryContractorExpense, -8000.50),
	)

	zero := alertsFor(t, e, txs, domain.PatternZeroRevenueWeek)
	if len(zero) != 1 {
		t.Fatalf("zero_revenue_week alerts = %d, want 1: %+v", len(zero), zero)
	}
	if zero[0].Category != domain.CategorySubscriptionRevenue {
		t.Errorf("zero_revenue_week category = %v, want subscription_revenue", zero[0].Category)
	}
	if !strings.Contains(zero[0].Description, "Zero revenue week") {
		t.Errorf("zero_revenue_week description = %q", zero[0].Description)
	}

	ratio := alertsFor(t, e, txs, domain.PatternContractorRatio)
	if len(ratio) != 1 {
		t.Fatalf("contractor_ratio alerts = %d, want 1: %+v", len(ratio), ratio)
	}
	if ratio[0].Category != domain.CategoryContractorExpense {
		t.Errorf("contractor_ratio category = %v, want contractor_expense", ratio[0].Category)
	}
	if !strings.Contains(ratio[0].Description, "Contractors") {
		t.Errorf("contractor_ratio description = %q", ratio[0].Description)
	}
}

func TestDuplicateAmountKeepsLedgerOrder(t *testing.T) {
	e := mustEngine(t)
	// Two duplicate groups in the same week and category. Dedupe keeps the
	// group that appears first in the ledger, not the smallest amount.
	txs := append(baseline(8),
		tx(4, domain.CategorySoftwareExpense, -900.10),
		tx(4, domain.CategorySoftwareExpense, -900.10),
		tx(4, domain.CategorySoftwareExpense, -100.10),
		tx(4, domain.CategorySoftwareExpense, -100.10),
	)
	alerts := alertsFor(t, e, txs, domain.PatternDuplicateAmount)
	if len(alerts) != 1 {
		t.Fatalf("len = %d, want 1 after dedupe: %+v", len(alerts), alerts)
	}
	if !strings.Contains(alerts[0].Description, "$900.10") {
		t.Errorf("kept %q, want the first group in ledger order", alerts[0].Description)
	}
}

func TestDedupeFirstWins(t *testing.T) {
	e := mustEngine(t)
	// Two round-number expenses in the same week and category produce one
	// alert keyed on the first.
	txs := append(baseline(8),
		tx(3, domain.CategorySoftwareExpense, -2000),
		tx(3, domain.CategorySoftwareExpense, -7000),
	)
	alerts := alertsFor(t, e, txs, domain.PatternRoundNumber)
	if len(alerts) != 1 {
		t.Fatalf("len = %d, want 1 after dedupe", len(alerts))
	}
	if !strings.Contains(alerts[0].Description, "$2,000") {
		t.Errorf("kept %q, want the first occurrence", alerts[0].Description)
	}
}

func TestScanDeterministic(t *testing.T) {
	e := mustEngine(t)
	txs := append(baseline(10),
		tx(3, domain.CategorySoftwareExpense, -5000),
		tx(5, domain.CategoryMarketingExpense, -20000.50),
		tx(7, domain.CategorySalaryExpense, -4200.50),
	)
	first, err := e.Scan(txs)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second, err := e.Scan(txs)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("alert counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].DedupeKey() != second[i].DedupeKey() || first[i].Description != second[i].Description {
			t.Errorf("alert %d differs between scans", i)
		}
	}
}
