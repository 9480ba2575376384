package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FraudPattern names one of the rule-based fraud checks.
type FraudPattern string

const (
	PatternRoundNumber     FraudPattern = "round_number"
	PatternVelocitySpike   FraudPattern = "velocity_spike"
	PatternDuplicateAmount FraudPattern = "duplicate_amount"
	PatternZeroRevenueWeek FraudPattern = "zero_revenue_week"
	PatternContractorRatio FraudPattern = "contractor_ratio"
)

// FraudAlert is one flagged ledger pattern for a week and category.
type FraudAlert struct {
	WeekStart   time.Time       `json:"weekStart"`
	Category    Category        `json:"category"`
	Pattern     FraudPattern    `json:"pattern"`
	Severity    Severity        `json:"severity"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// DedupeKey groups alerts for the same week, category, and pattern. The first
// occurrence wins during deduplication.
func (a FraudAlert) DedupeKey() string {
	return fmt.Sprintf("%s|%s|%s", a.WeekStart.Format("2006-01-02"), a.Category, a.Pattern)
}
