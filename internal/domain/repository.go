package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence collaborator. The engine itself never touches
// storage: fetching the ledger and replacing prior entities for a run are the
// caller's responsibility. Implementations live outside this module.
type Repository interface {
	// Transactions returns the ordered ledger for a run.
	Transactions(ctx context.Context, runID uuid.UUID) ([]Transaction, error)

	// ReplaceRun atomically replaces all derived entities for the result's
	// run identifier. Full replace, not merge: re-running a run must leave
	// storage identical to a single run.
	ReplaceRun(ctx context.Context, result *AnalysisResult) error

	// Result returns the stored bundle for a run, or nil when absent.
	Result(ctx context.Context, runID uuid.UUID) (*AnalysisResult, error)

	Close() error
}
