// Package snapshot derives weekly KPI snapshots from raw ledger transactions.
package snapshot

import (
	"math"
	"sort"
	"time"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

const (
	// trailingChurnWeeks bounds how much history feeds the LTV churn smoothing.
	trailingChurnWeeks = 12

	// minChurnHistory is the number of prior weeks required before the
	// trailing average replaces the current week's churn rate.
	minChurnHistory = 4

	// annualChurnFloor keeps LTV finite for companies with near-zero churn.
	annualChurnFloor = 0.05
)

// weeklyAggregate accumulates per-category sums for one Monday-aligned week.
type weeklyAggregate struct {
	subscriptionRevenue float64
	churnRefund         float64
	salary              float64
	software            float64
	marketing           float64
	cogs                float64
	tax                 float64
	active              map[string]struct{}
}

// Build buckets transactions into Monday-start weeks and computes one
// WeeklySnapshot per week, oldest first. It fails only when the transaction
// set is empty; a short ledger still yields the snapshots it can support.
func Build(txs []domain.Transaction) ([]domain.WeeklySnapshot, error) {
	if len(txs) == 0 {
		return nil, domain.ErrNoTransactions
	}

	weeks := make(map[time.Time]*weeklyAggregate)
	firstWeek := make(map[string]time.Time)

	for _, tx := range txs {
		wk := tx.WeekStart()
		agg := weeks[wk]
		if agg == nil {
			agg = &weeklyAggregate{active: make(map[string]struct{})}
			weeks[wk] = agg
		}

		amt, _ := tx.Amount.Float64()
		switch tx.Category {
		case domain.CategorySubscriptionRevenue:
			agg.subscriptionRevenue += amt
			if tx.CustomerID != "" {
				agg.active[tx.CustomerID] = struct{}{}
				if prev, ok := firstWeek[tx.CustomerID]; !ok || wk.Before(prev) {
					firstWeek[tx.CustomerID] = wk
				}
			}
		case domain.CategoryChurnRefund:
			agg.churnRefund += amt
		case domain.CategorySalaryExpense:
			agg.salary += amt
		case domain.CategorySoftwareExpense:
			agg.software += amt
		case domain.CategoryMarketingExpense:
			agg.marketing += amt
		case domain.CategoryCOGS:
			agg.cogs += amt
		case domain.CategoryTaxPayment:
			agg.tax += amt
		}
	}

	newByWeek := make(map[time.Time]int, len(firstWeek))
	for _, wk := range firstWeek {
		newByWeek[wk]++
	}

	order := make([]time.Time, 0, len(weeks))
	for wk := range weeks {
		order = append(order, wk)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	snapshots := make([]domain.WeeklySnapshot, 0, len(order))
	hist := make([]map[string]float64, 0, len(order))

	for _, wk := range order {
		agg := weeks[wk]

		revenue := agg.subscriptionRevenue
		churnAbs := math.Abs(agg.churnRefund)
		salary := math.Abs(agg.salary)
		software := math.Abs(agg.software)
		marketing := math.Abs(agg.marketing)
		cogs := math.Abs(agg.cogs)
		tax := math.Abs(agg.tax)
		expensesTotal := salary + software + marketing + cogs + tax

		newCustomers := newByWeek[wk]
		activeCount := len(agg.active)
		if activeCount < 1 {
			activeCount = 1
		}

		mrr := math.Max(revenue-churnAbs, 0)
		churnRate := math.Min(safeDiv(churnAbs, revenue, 0), 1)
		burnRate := math.Max(expensesTotal-revenue, 0)
		grossMargin := safeDiv(revenue-cogs, revenue, 0)
		cac := safeDiv(marketing, float64(newCustomers), 0)

		arpuAnnual := safeDiv(revenue, float64(activeCount), 0) * 52

		// Trailing churn stabilises LTV once enough prior weeks exist.
		trailingChurn := math.Max(churnRate, 0.001)
		if len(hist) >= minChurnHistory {
			window := hist
			if len(window) > trailingChurnWeeks {
				window = window[len(window)-trailingChurnWeeks:]
			}
			var sum float64
			for _, h := range window {
				sum += h["churn_rate"]
			}
			trailingChurn = sum / float64(len(window))
		}
		annualChurn := math.Max(trailingChurn*52, annualChurnFloor)
		ltv := safeDiv(arpuAnnual*math.Max(grossMargin, 0.01), annualChurn, 0)

		metrics := map[string]float64{
			"mrr":          mrr,
			"arr":          mrr * 12,
			"churn_rate":   churnRate,
			"burn_rate":    burnRate,
			"gross_margin": grossMargin,
			"cac":          cac,
			"ltv":          ltv,
		}
		hist = append(hist, metrics)

		snapshots = append(snapshots, domain.WeeklySnapshot{
			WeekStart:       wk,
			MRR:             mrr,
			ARR:             mrr * 12,
			ChurnRate:       churnRate,
			BurnRate:        burnRate,
			GrossMargin:     grossMargin,
			CAC:             cac,
			LTV:             ltv,
			WoWDelta:        deltas(hist, 1),
			MoMDelta:        deltas(hist, 4),
			Revenue:         revenue,
			ExpensesTotal:   expensesTotal,
			NewCustomers:    newCustomers,
			ActiveCustomers: activeCount,
		})
	}

	return snapshots, nil
}

// deltas computes the relative change of every metric versus the snapshot
// periodsBack before the latest entry of hist. Missing history yields zeros.
func deltas(hist []map[string]float64, periodsBack int) map[string]float64 {
	curr := hist[len(hist)-1]
	var prev map[string]float64
	if idx := len(hist) - 1 - periodsBack; idx >= 0 {
		prev = hist[idx]
	}

	out := make(map[string]float64, len(domain.MetricNames))
	for _, name := range domain.MetricNames {
		if prev == nil {
			out[name] = 0
			continue
		}
		out[name] = round4(delta(curr[name], prev[name]))
	}
	return out
}

func delta(curr, prev float64) float64 {
	if math.Abs(prev) < 1e-9 {
		return 0
	}
	return (curr - prev) / math.Abs(prev)
}

func safeDiv(num, den, def float64) float64 {
	if math.Abs(den) < 1e-9 {
		return def
	}
	return num / den
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
