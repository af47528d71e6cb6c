package ports

import (
	"context"

	"proxtest/domain/core"
	"proxtest/domain/stats"
)

// RunSummary is the persisted headline of a run
type RunSummary struct {
	RunID         core.RunID
	Fingerprint   core.Hash
	Seed          int64
	Iterations    int
	ObservedMeanD float64
	ObservedMeanT float64
	PDistance     float64
	PTime         float64
	Policy        stats.MissingPolicy
	RowsDropped   int
	CreatedAt     core.Timestamp
}

// RunRepositoryPort stores run summaries for later comparison. Runs never
// read earlier runs back; the store is an output sink.
type RunRepositoryPort interface {
	SaveRun(ctx context.Context, result *stats.RunResult) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	// GetRun returns a NOT_FOUND error when id was never saved
	GetRun(ctx context.Context, id core.RunID) (*RunSummary, error)
}
