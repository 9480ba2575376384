// Package fraud screens raw ledger transactions with CEL-compiled rules.
// Rules are compiled once at engine construction; a scan enumerates candidate
// activations per rule scope, evaluates the expressions, and deduplicates
// alerts by (week, category, pattern) with first occurrence winning.
package fraud

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/shopspring/decimal"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

const velocityLookbackWeeks = 8

// Engine holds the compiled rule programs. Construct once, scan many.
type Engine struct {
	compiled []compiledRule
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// candidate is one activation to test against a rule, plus everything needed
// to build the alert if it fires.
type candidate struct {
	week     time.Time
	category domain.Category
	amount   decimal.Decimal
	vars     map[string]any
	describe func() string
}

// NewEngine compiles the given rules into CEL programs. Every expression must
// type-check to bool.
func NewEngine(rules []Rule) (*Engine, error) {
	env, err := cel.NewEnv(
		// Per-transaction variables.
		cel.Variable("amount_cents", cel.IntType),
		cel.Variable("exact_cents", cel.BoolType),
		cel.Variable("is_revenue", cel.BoolType),
		// Per-category-week variables.
		cel.Variable("total_abs", cel.DoubleType),
		cel.Variable("median_abs", cel.DoubleType),
		cel.Variable("prior_weeks", cel.IntType),
		// Per-amount-group variables.
		cel.Variable("dup_count", cel.IntType),
		// Per-week variables.
		cel.Variable("revenue", cel.DoubleType),
		cel.Variable("expense", cel.DoubleType),
		cel.Variable("median_expense", cel.DoubleType),
		cel.Variable("history_weeks", cel.IntType),
		cel.Variable("contractor", cel.DoubleType),
		cel.Variable("salary", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &Engine{compiled: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: compile failed: %w", r.Pattern, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("rule %s: expression must return bool, got %v", r.Pattern, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: program construction failed: %w", r.Pattern, err)
		}
		e.compiled = append(e.compiled, compiledRule{rule: r, program: program})
	}
	return e, nil
}

// Scan evaluates every rule against the ledger and returns the deduplicated
// alerts in rule-then-ledger order.
func (e *Engine) Scan(txs []domain.Transaction) ([]domain.FraudAlert, error) {
	if len(txs) == 0 {
		return nil, nil
	}
	tbl := buildTable(txs)

	var alerts []domain.FraudAlert
	for _, cr := range e.compiled {
		for _, c := range tbl.candidates(cr.rule.Scope, txs) {
			out, _, err := cr.program.Eval(c.vars)
			if err != nil {
				return nil, fmt.Errorf("rule %s: evaluation failed: %w", cr.rule.Pattern, err)
			}
			if out != types.True {
				continue
			}
			alerts = append(alerts, domain.FraudAlert{
				WeekStart:   c.week,
				Category:    c.category,
				Pattern:     cr.rule.Pattern,
				Severity:    cr.rule.Severity,
				Amount:      c.amount,
				Description: c.describe(),
			})
		}
	}
	return dedupe(alerts), nil
}

// ledgerTable is the weekly bucketing shared by all rule scopes.
type ledgerTable struct {
	weeks   []time.Time
	buckets map[time.Time]map[domain.Category][]decimal.Decimal

	// catTotals holds, per category, the weekly totals for only the weeks
	// where that category has rows, in week order.
	catOrder  []domain.Category
	catTotals map[domain.Category][]weekTotal
}

type weekTotal struct {
	week  time.Time
	total float64
}

func buildTable(txs []domain.Transaction) *ledgerTable {
	tbl := &ledgerTable{
		buckets:   make(map[time.Time]map[domain.Category][]decimal.Decimal),
		catTotals: make(map[domain.Category][]weekTotal),
	}
	for _, tx := range txs {
		wk := tx.WeekStart()
		if tbl.buckets[wk] == nil {
			tbl.buckets[wk] = make(map[domain.Category][]decimal.Decimal)
			tbl.weeks = append(tbl.weeks, wk)
		}
		tbl.buckets[wk][tx.Category] = append(tbl.buckets[wk][tx.Category], tx.Amount)
	}
	sort.Slice(tbl.weeks, func(i, j int) bool { return tbl.weeks[i].Before(tbl.weeks[j]) })

	for _, wk := range tbl.weeks {
		for _, cat := range sortedCategories(tbl.buckets[wk]) {
			if _, seen := tbl.catTotals[cat]; !seen {
				tbl.catOrder = append(tbl.catOrder, cat)
			}
			var total float64
			for _, a := range tbl.buckets[wk][cat] {
				total += a.InexactFloat64()
			}
			tbl.catTotals[cat] = append(tbl.catTotals[cat], weekTotal{week: wk, total: total})
		}
	}
	sort.Slice(tbl.catOrder, func(i, j int) bool { return tbl.catOrder[i] < tbl.catOrder[j] })
	return tbl
}

func (t *ledgerTable) candidates(scope Scope, txs []domain.Transaction) []candidate {
	switch scope {
	case ScopeTransaction:
		return t.transactionCandidates(txs)
	case ScopeCategoryWeek:
		return t.categoryWeekCandidates()
	case ScopeAmountGroup:
		return t.amountGroupCandidates()
	case ScopeWeekRevenue:
		return t.weekRevenueCandidates()
	case ScopeWeekPayroll:
		return t.weekPayrollCandidates()
	}
	return nil
}

func (t *ledgerTable) transactionCandidates(txs []domain.Transaction) []candidate {
	out := make([]candidate, 0, len(txs))
	for _, tx := range txs {
		abs := tx.Amount.Abs()
		cents := abs.Mul(decimal.NewFromInt(100))
		exact := cents.IsInteger()
		var amountCents int64
		if exact {
			amountCents = cents.IntPart()
		}
		out = append(out, candidate{
			week:     tx.WeekStart(),
			category: tx.Category,
			amount:   tx.Amount,
			vars: activation(map[string]any{
				"amount_cents": amountCents,
				"exact_cents":  exact,
				"is_revenue":   tx.Category.IsRevenueSide(),
			}),
			describe: func() string {
				return fmt.Sprintf(
					"Perfectly round $%s in %s on %s. Round numbers may indicate fictitious or manually entered transactions.",
					formatUSD(abs.InexactFloat64(), 0), tx.Category, tx.Date.Format("2006-01-02"))
			},
		})
	}
	return out
}

func (t *ledgerTable) categoryWeekCandidates() []candidate {
	var out []candidate
	for _, cat := range t.catOrder {
		totals := t.catTotals[cat]
		if len(totals) < 4 {
			continue
		}
		for i, wt := range totals {
			lo := i - velocityLookbackWeeks
			if lo < 0 {
				lo = 0
			}
			lookback := make([]float64, 0, i-lo)
			for _, prev := range totals[lo:i] {
				lookback = append(lookback, prev.total)
			}
			med := math.Abs(medianFloat(lookback))
			totalAbs := math.Abs(wt.total)
			out = append(out, candidate{
				week:     wt.week,
				category: cat,
				amount:   decimal.NewFromFloat(round4(wt.total)),
				vars: activation(map[string]any{
					"prior_weeks": int64(len(lookback)),
					"median_abs":  med,
					"total_abs":   totalAbs,
				}),
				describe: func() string {
					return fmt.Sprintf("%s spike: $%s vs $%s rolling median (%.1fx). Possible unauthorized spend.",
						cat, formatUSD(totalAbs, 0), formatUSD(med, 0), totalAbs/med)
				},
			})
		}
	}
	return out
}

func (t *ledgerTable) amountGroupCandidates() []candidate {
	var out []candidate
	for _, wk := range t.weeks {
		for _, cat := range sortedCategories(t.buckets[wk]) {
			counts := make(map[string]int)
			var keys []string
			for _, a := range t.buckets[wk][cat] {
				key := fmt.Sprintf("%.4f", a.InexactFloat64())
				if counts[key] == 0 {
					keys = append(keys, key)
				}
				counts[key]++
			}
			// keys keeps first-appearance order so dedupe preserves the
			// earliest group in the ledger.
			for _, key := range keys {
				amount, err := decimal.NewFromString(key)
				if err != nil {
					continue
				}
				count := counts[key]
				out = append(out, candidate{
					week:     wk,
					category: cat,
					amount:   amount,
					vars: activation(map[string]any{
						"dup_count": int64(count),
					}),
					describe: func() string {
						return fmt.Sprintf("$%s appears %dx in %s during week %s. Possible duplicate or split transaction.",
							formatUSD(amount.InexactFloat64(), 2), count, cat, wk.Format("2006-01-02"))
					},
				})
			}
		}
	}
	return out
}

func (t *ledgerTable) weekRevenueCandidates() []candidate {
	expenseTotals := make([]float64, 0, len(t.weeks))
	for _, wk := range t.weeks {
		expenseTotals = append(expenseTotals, t.weekExpense(wk))
	}
	medianExpense := medianFloat(expenseTotals)
	historyWeeks := int64(len(t.weeks))

	var out []candidate
	for i, wk := range t.weeks {
		revenue := sumFloat(t.buckets[wk][domain.CategorySubscriptionRevenue])
		expense := expenseTotals[i]
		out = append(out, candidate{
			week:     wk,
			category: domain.CategorySubscriptionRevenue,
			amount:   decimal.Zero,
			vars: activation(map[string]any{
				"revenue":        revenue,
				"expense":        expense,
				"median_expense": medianExpense,
				"history_weeks":  historyWeeks,
			}),
			describe: func() string {
				return fmt.Sprintf("Zero revenue week %s with $%s in expenses (median: $%s). Revenue recognition gap or data issue.",
					wk.Format("2006-01-02"), formatUSD(expense, 0), formatUSD(medianExpense, 0))
			},
		})
	}
	return out
}

func (t *ledgerTable) weekPayrollCandidates() []candidate {
	var out []candidate
	for _, wk := range t.weeks {
		contractor := math.Abs(sumFloat(t.buckets[wk][domain.CategoryContractorExpense]))
		salary := math.Abs(sumFloat(t.buckets[wk][domain.CategorySalaryExpense]))
		out = append(out, candidate{
			week:     wk,
			category: domain.CategoryContractorExpense,
			amount:   decimal.NewFromFloat(round4(contractor)),
			vars: activation(map[string]any{
				"contractor": contractor,
				"salary":     salary,
			}),
			describe: func() string {
				return fmt.Sprintf("Contractors $%s = %.1fx salary $%s (week %s). High ratio may indicate misclassification.",
					formatUSD(contractor, 0), contractor/salary, formatUSD(salary, 0), wk.Format("2006-01-02"))
			},
		})
	}
	return out
}

// weekExpense sums absolute amounts across all expense-side categories for a
// week.
func (t *ledgerTable) weekExpense(wk time.Time) float64 {
	var total float64
	for cat, amounts := range t.buckets[wk] {
		if cat.IsRevenueSide() {
			continue
		}
		for _, a := range amounts {
			total += math.Abs(a.InexactFloat64())
		}
	}
	return total
}

// dedupe keeps the first alert per (week, category, pattern).
func dedupe(alerts []domain.FraudAlert) []domain.FraudAlert {
	if len(alerts) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(alerts))
	out := make([]domain.FraudAlert, 0, len(alerts))
	for _, a := range alerts {
		key := a.DedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// activation overlays candidate variables on a zero-valued activation so
// every declared variable resolves during evaluation.
func activation(vars map[string]any) map[string]any {
	base := map[string]any{
		"amount_cents":   int64(0),
		"exact_cents":    false,
		"is_revenue":     false,
		"total_abs":      0.0,
		"median_abs":     0.0,
		"prior_weeks":    int64(0),
		"dup_count":      int64(0),
		"revenue":        0.0,
		"expense":        0.0,
		"median_expense": 0.0,
		"history_weeks":  int64(0),
		"contractor":     0.0,
		"salary":         0.0,
	}
	for k, v := range vars {
		base[k] = v
	}
	return base
}

func sortedCategories(bucket map[domain.Category][]decimal.Decimal) []domain.Category {
	cats := make([]domain.Category, 0, len(bucket))
	for cat := range bucket {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

func sumFloat(amounts []decimal.Decimal) float64 {
	var total float64
	for _, a := range amounts {
		total += a.InexactFloat64()
	}
	return total
}

// medianFloat is the middle value, averaging the central pair for even
// counts. Zero for empty input.
func medianFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// formatUSD renders an amount with thousands separators and the given number
// of decimal places.
func formatUSD(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, math.Abs(v))
	intPart := s
	var frac string
	if decimals > 0 {
		intPart = s[:len(s)-decimals-1]
		frac = s[len(s)-decimals-1:]
	}
	for i := len(intPart) - 3; i > 0; i -= 3 {
		intPart = intPart[:i] + "," + intPart[i:]
	}
	return intPart + frac
}
