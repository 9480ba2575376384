// Package customer derives per-customer revenue profiles from the raw
// ledger.
package customer

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

// Segment thresholds on average weekly revenue, exclusive lower bounds.
const (
	enterpriseWeekly = 500
	midWeekly        = 150
)

type accumulator struct {
	revenue   decimal.Decimal
	weeks     map[time.Time]struct{}
	firstSeen time.Time
	lastSeen  time.Time
	churned   bool
}

// Profiles aggregates subscription revenue per customer and returns profiles
// sorted by total revenue descending, customer ID ascending on ties. Rows
// without a customer ID are ignored; churn_refund rows only set the churn
// flag.
func Profiles(txs []domain.Transaction) []domain.CustomerProfile {
	acc := make(map[string]*accumulator)
	var order []string

	for _, tx := range txs {
		if tx.CustomerID == "" {
			continue
		}
		a := acc[tx.CustomerID]
		if a == nil {
			a = &accumulator{weeks: make(map[time.Time]struct{})}
			acc[tx.CustomerID] = a
			order = append(order, tx.CustomerID)
		}
		switch tx.Category {
		case domain.CategorySubscriptionRevenue:
			a.revenue = a.revenue.Add(tx.Amount)
			a.weeks[tx.WeekStart()] = struct{}{}
			if a.firstSeen.IsZero() || tx.Date.Before(a.firstSeen) {
				a.firstSeen = tx.Date
			}
			if a.lastSeen.IsZero() || tx.Date.After(a.lastSeen) {
				a.lastSeen = tx.Date
			}
		case domain.CategoryChurnRefund:
			a.churned = true
		}
	}

	total := decimal.Zero
	for _, a := range acc {
		total = total.Add(a.revenue)
	}

	profiles := make([]domain.CustomerProfile, 0, len(acc))
	for _, cid := range order {
		a := acc[cid]
		weeksActive := len(a.weeks)
		if weeksActive == 0 {
			// Refund-only customer with no revenue rows: nothing to profile.
			continue
		}

		avgWeekly := a.revenue.Div(decimal.NewFromInt(int64(max(weeksActive, 1)))).Round(2)

		var pct float64
		if total.IsPositive() {
			pct = round4(a.revenue.InexactFloat64() / total.InexactFloat64())
		}

		profiles = append(profiles, domain.CustomerProfile{
			CustomerID:       cid,
			TotalRevenue:     a.revenue.Round(2),
			WeeksActive:      weeksActive,
			AvgWeeklyRevenue: avgWeekly,
			FirstSeen:        a.firstSeen,
			LastSeen:         a.lastSeen,
			ChurnFlag:        a.churned,
			Segment:          segmentFor(avgWeekly),
			RevenuePct:       pct,
		})
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		cmp := profiles[i].TotalRevenue.Cmp(profiles[j].TotalRevenue)
		if cmp != 0 {
			return cmp > 0
		}
		return profiles[i].CustomerID < profiles[j].CustomerID
	})
	return profiles
}

func segmentFor(avgWeekly decimal.Decimal) domain.Segment {
	switch {
	case avgWeekly.GreaterThan(decimal.NewFromInt(enterpriseWeekly)):
		return domain.SegmentEnterprise
	case avgWeekly.GreaterThan(decimal.NewFromInt(midWeekly)):
		return domain.SegmentMid
	}
	return domain.SegmentSMB
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
