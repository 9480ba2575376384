// Package ledger generates deterministic synthetic transaction ledgers for
// demos and benchmarks.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/rand"

	"github.com/daniel-st3/ai-cfo-agent/internal/domain"
)

// Config shapes the generated ledger.
type Config struct {
	// Weeks of history to generate.
	Weeks int
	// Start is the first week's Monday; zero value defaults to a fixed date
	// so demo output is reproducible.
	Start time.Time
	// Customers is the number of recurring subscription customers.
	Customers int
	// Seed drives all randomness.
	Seed uint64
	// PlantFraud injects a handful of rule-tripping rows late in the ledger.
	PlantFraud bool
}

// Demo returns a ledger with sensible demo defaults: growing revenue, mixed
// expenses, and planted fraud in the final weeks.
func Demo(weeks int) []domain.Transaction {
	return Generate(Config{
		Weeks:      weeks,
		Customers:  12,
		Seed:       42,
		PlantFraud: true,
	})
}

// Generate builds a synthetic ledger. Output is deterministic for a given
// config.
func Generate(cfg Config) []domain.Transaction {
	if cfg.Weeks < 1 {
		cfg.Weeks = 16
	}
	if cfg.Customers < 1 {
		cfg.Customers = 8
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	}
	start = domain.WeekStart(start)
	rng := rand.New(rand.NewSource(cfg.Seed))

	// Per-customer weekly subscription, skewed so a few customers dominate.
	subs := make([]float64, cfg.Customers)
	for i := range subs {
		base := 80.0 + rng.Float64()*120.0
		if i%4 == 0 {
			base *= 6 // enterprise tier
		}
		subs[i] = base
	}

	var txs []domain.Transaction
	for w := 0; w < cfg.Weeks; w++ {
		week := start.AddDate(0, 0, w*7)
		growth := 1.0 + 0.015*float64(w)

		for i, sub := range subs {
			// A late-joining cohort and one churned customer.
			if i%5 == 4 && w < cfg.Weeks/3 {
				continue
			}
			churned := i == 1 && w > 2*cfg.Weeks/3
			cid := fmt.Sprintf("cust-%03d", i+1)
			if churned {
				if w == 2*cfg.Weeks/3+1 {
					txs = append(txs, tx(week.AddDate(0, 0, 2), domain.CategoryChurnRefund,
						-sub*growth*0.5, cid))
				}
				continue
			}
			amount := sub * growth * (0.95 + rng.Float64()*0.1)
			txs = append(txs, tx(week.AddDate(0, 0, rng.Intn(5)), domain.CategorySubscriptionRevenue, amount, cid))
		}

		txs = append(txs,
			tx(week, domain.CategorySalaryExpense, -(5200+rng.Float64()*300), ""),
			tx(week.AddDate(0, 0, 1), domain.CategorySoftwareExpense, -(740+rng.Float64()*120), ""),
			tx(week.AddDate(0, 0, 2), domain.CategoryMarketingExpense, -(1300+rng.Float64()*400), ""),
			tx(week.AddDate(0, 0, 3), domain.CategoryCOGS, -(900+rng.Float64()*200), ""),
			tx(week.AddDate(0, 0, 4), domain.CategoryContractorExpense, -(1100+rng.Float64()*250), ""),
		)
		if w%13 == 12 {
			txs = append(txs, tx(week.AddDate(0, 0, 4), domain.CategoryTaxPayment, -(4200+rng.Float64()*800), ""))
		}
	}

	if cfg.PlantFraud && cfg.Weeks >= 6 {
		fraudWeek := start.AddDate(0, 0, (cfg.Weeks-2)*7)
		txs = append(txs,
			// Round-number expense.
			tx(fraudWeek, domain.CategorySoftwareExpense, -3000, ""),
			// Duplicate amounts in one week.
			tx(fraudWeek.AddDate(0, 0, 1), domain.CategoryMarketingExpense, -874.99, ""),
			tx(fraudWeek.AddDate(0, 0, 3), domain.CategoryMarketingExpense, -874.99, ""),
			// Contractor blowout against payroll.
			tx(fraudWeek.AddDate(0, 0, 2), domain.CategoryContractorExpense, -14500.75, ""),
		)
	}
	return txs
}

func tx(date time.Time, cat domain.Category, amount float64, customer string) domain.Transaction {
	return domain.Transaction{
		Date:       date,
		Category:   cat,
		Amount:     decimal.NewFromFloat(amount).Round(2),
		CustomerID: customer,
	}
}
