package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Segment buckets customers by average weekly revenue.
type Segment string

const (
	SegmentEnterprise Segment = "Enterprise"
	SegmentMid        Segment = "Mid"
	SegmentSMB        Segment = "SMB"
)

// CustomerProfile is the per-customer revenue profile for one run, built from
// subscription revenue rows only.
type CustomerProfile struct {
	CustomerID       string          `json:"customerId"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	WeeksActive      int             `json:"weeksActive"`
	AvgWeeklyRevenue decimal.Decimal `json:"avgWeeklyRevenue"`
	FirstSeen        time.Time       `json:"firstSeen"`
	LastSeen         time.Time       `json:"lastSeen"`
	ChurnFlag        bool            `json:"churnFlag"`
	Segment          Segment         `json:"segment"`

	// RevenuePct is this customer's share of total platform revenue for the
	// run. Shares sum to ~1.0 across all profiles.
	RevenuePct float64 `json:"revenuePct"`
}
