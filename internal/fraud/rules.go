package fraud

import "github.com/daniel-st3/ai-cfo-agent/internal/domain"

// Scope selects which ledger slice a rule is evaluated against.
type Scope int

const (
	// ScopeTransaction evaluates once per raw transaction.
	ScopeTransaction Scope = iota
	// ScopeCategoryWeek evaluates once per (category, week) total with its
	// trailing eight-week context.
	ScopeCategoryWeek
	// ScopeAmountGroup evaluates once per identical-amount group within a
	// (week, category) bucket.
	ScopeAmountGroup
	// ScopeWeekRevenue evaluates once per calendar week against the week's
	// revenue and expense aggregates.
	ScopeWeekRevenue
	// ScopeWeekPayroll evaluates once per calendar week against the week's
	// contractor and salary totals.
	ScopeWeekPayroll
)

// Rule pairs a fraud pattern with the CEL expression that decides whether a
// candidate fires. Expressions must evaluate to bool.
type Rule struct {
	Pattern  domain.FraudPattern
	Scope    Scope
	Severity domain.Severity
	Expr     string
}

// BuiltinRules returns the five stock fraud checks. Callers may append their
// own rules before constructing the engine.
func BuiltinRules() []Rule {
	return []Rule{
		{
			// Expense amounts exactly divisible by $1000.
			Pattern:  domain.PatternRoundNumber,
			Scope:    ScopeTransaction,
			Severity: domain.SeverityHigh,
			Expr:     "!is_revenue && exact_cents && amount_cents >= 100000 && amount_cents % 100000 == 0",
		},
		{
			// Weekly category total exceeding 3x its trailing median.
			Pattern:  domain.PatternVelocitySpike,
			Scope:    ScopeCategoryWeek,
			Severity: domain.SeverityHigh,
			Expr:     "prior_weeks >= 2 && median_abs > 0.0 && total_abs > 3.0 * median_abs",
		},
		{
			// Identical amount repeated within a week and category.
			Pattern:  domain.PatternDuplicateAmount,
			Scope:    ScopeAmountGroup,
			Severity: domain.SeverityMedium,
			Expr:     "dup_count >= 2",
		},
		{
			// No revenue recognized in a week with above-median spend.
			Pattern:  domain.PatternZeroRevenueWeek,
			Scope:    ScopeWeekRevenue,
			Severity: domain.SeverityMedium,
			Expr:     "history_weeks >= 4 && revenue == 0.0 && expense > median_expense",
		},
		{
			// Contractor spend far out of proportion to payroll.
			Pattern:  domain.PatternContractorRatio,
			Scope:    ScopeWeekPayroll,
			Severity: domain.SeverityLow,
			Expr:     "salary > 0.0 && contractor > 2.5 * salary",
		},
	}
}
