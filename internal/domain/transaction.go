// Package domain holds the core types and collaborator interfaces shared by
// every analysis component.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a ledger transaction.
type Category string

const (
	CategorySubscriptionRevenue Category = "subscription_revenue"
	CategoryChurnRefund         Category = "churn_refund"
	CategorySalaryExpense       Category = "salary_expense"
	CategorySoftwareExpense     Category = "software_expense"
	CategoryMarketingExpense    Category = "marketing_expense"
	CategoryCOGS                Category = "cogs"
	CategoryTaxPayment          Category = "tax_payment"
	CategoryContractorExpense   Category = "contractor_expense"
)

// IsRevenueSide reports whether the category belongs to the revenue side of
// the ledger (revenue itself or refunds against it). Expense-only fraud rules
// skip these.
func (c Category) IsRevenueSide() bool {
	return c == CategorySubscriptionRevenue || c == CategoryChurnRefund
}

// Transaction is one immutable ledger row for an analysis run. Transactions
// are trusted input: the engine never mutates or validates them. Amount is a
// fixed-point decimal; revenue categories carry positive amounts, refunds and
// expenses may be negative (absolute values are taken per category semantics).
type Transaction struct {
	Date       time.Time       `json:"date"`
	Category   Category        `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	CustomerID string          `json:"customerId,omitempty"`
}

// WeekStart returns the Monday of the week containing the transaction date.
func (t Transaction) WeekStart() time.Time {
	return WeekStart(t.Date)
}

// WeekStart returns the Monday-aligned start of the week containing d, at
// midnight UTC.
func WeekStart(d time.Time) time.Time {
	d = d.UTC()
	offset := (int(d.Weekday()) + 6) % 7
	y, m, day := d.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
