package domain

import "errors"

var (
	// ErrNoTransactions is the only fatal pipeline error: with no ledger rows
	// at all, nothing can be derived.
	ErrNoTransactions = errors.New("no transactions for run")

	// ErrForecastUnavailable marks a failed or disabled forecast-model call.
	// The forecast detector contributes nothing for the affected metric.
	ErrForecastUnavailable = errors.New("forecast model unavailable")
)
