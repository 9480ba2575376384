package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseFrequency is the billing cadence of a committed expense.
type ExpenseFrequency string

const (
	FrequencyWeekly    ExpenseFrequency = "weekly"
	FrequencyMonthly   ExpenseFrequency = "monthly"
	FrequencyQuarterly ExpenseFrequency = "quarterly"
	FrequencyAnnual    ExpenseFrequency = "annual"
)

// CommittedExpense is a recurring obligation (rent, payroll, SaaS contracts)
// supplied by the caller to refine the cash-flow forecast.
type CommittedExpense struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Amount          decimal.Decimal  `json:"amount"`
	Frequency       ExpenseFrequency `json:"frequency"`
	Category        Category         `json:"category,omitempty"`
	NextPaymentDate time.Time        `json:"nextPaymentDate"`
}

// WeeklyAmount converts the expense to its weekly equivalent. Unknown
// frequencies are treated as monthly.
func (e CommittedExpense) WeeklyAmount() float64 {
	amt, _ := e.Amount.Float64()
	switch e.Frequency {
	case FrequencyWeekly:
		return amt
	case FrequencyQuarterly:
		return amt / 13.0
	case FrequencyAnnual:
		return amt / 52.0
	}
	return amt / 4.33
}

// CashFlowPoint is one week of the rolling cash-flow forecast.
type CashFlowPoint struct {
	WeekOffset       int       `json:"weekOffset"`
	WeekStart        time.Time `json:"weekStart"`
	BalanceP10       float64   `json:"predictedBalanceP10"`
	BalanceP50       float64   `json:"predictedBalanceP50"`
	BalanceP90       float64   `json:"predictedBalanceP90"`
	ExpectedInflows  float64   `json:"expectedInflows"`
	ExpectedOutflows float64   `json:"expectedOutflows"`
}

// CashFlowForecast is the 13-week rolling forecast with P10/P50/P90 bands.
type CashFlowForecast struct {
	CurrentCash          float64         `json:"currentCash"`
	TotalCommittedWeekly float64         `json:"totalCommittedWeekly"`

	// WeeksUntilZeroP50 is the first week offset where the median balance
	// reaches zero; 0 means the median path survives the horizon.
	WeeksUntilZeroP50 int             `json:"weeksUntilZeroP50,omitempty"`
	Points            []CashFlowPoint `json:"forecast"`
}
