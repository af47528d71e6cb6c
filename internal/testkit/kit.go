package testkit

import (
	"context"
	"fmt"
	"io"
	"sync"

	"proxtest/adapters/rng"
	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/domain/travel"
	"proxtest/internal"
	"proxtest/internal/errors"
	"proxtest/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	rng    *rng.Adapter
	logger *internal.Logger
	runs   *InMemoryRunRepository
}

// NewTestKit creates a test kit with a quiet logger
func NewTestKit() *TestKit {
	return &TestKit{
		rng:    rng.NewAdapter(),
		logger: internal.NewLoggerTo(io.Discard, internal.LogLevelError),
		runs:   NewInMemoryRunRepository(),
	}
}

// RNGAdapter returns the deterministic stream adapter used in production
func (t *TestKit) RNGAdapter() ports.RNGPort { return t.rng }

// Logger returns a logger that discards everything below error
func (t *TestKit) Logger() *internal.Logger { return t.logger }

// RunRepository returns the shared in-memory run store
func (t *TestKit) RunRepository() *InMemoryRunRepository { return t.runs }

// Synthesize generates a study and prepares it the way the CLI does: the
// lookup excludes observed pairs and is then augmented from them
func (t *TestKit) Synthesize(config ProximityGeneratorConfig) (*SyntheticData, *ports.TestInput, error) {
	gen, err := NewProximityDataGenerator(config)
	if err != nil {
		return nil, nil, err
	}
	data := gen.Generate()

	observed, err := travel.NewObservedTable(data.Observed)
	if err != nil {
		return nil, nil, err
	}
	lookup, _, err := travel.BuildLookupTable(data.Full, observed, true)
	if err != nil {
		return nil, nil, err
	}
	registry := travel.NewCommunityRegistryFromRows(data.Full)
	lookup, _, err = lookup.AugmentFromObserved(observed)
	if err != nil {
		return nil, nil, err
	}
	return data, &ports.TestInput{Lookup: lookup, Observed: observed, Registry: registry}, nil
}

// InMemoryRunRepository is a RunRepositoryPort backed by a slice
type InMemoryRunRepository struct {
	mu   sync.RWMutex
	runs []*stats.RunResult
}

var _ ports.RunRepositoryPort = (*InMemoryRunRepository)(nil)

// NewInMemoryRunRepository creates an empty store
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{}
}

// SaveRun appends a run
func (s *InMemoryRunRepository) SaveRun(ctx context.Context, result *stats.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, result)
	return nil
}

// ListRuns returns stored runs, newest first
func (s *InMemoryRunRepository) ListRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ports.RunSummary
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, summarize(s.runs[i]))
	}
	return out, nil
}

// GetRun returns the stored run with id
func (s *InMemoryRunRepository) GetRun(ctx context.Context, id core.RunID) (*ports.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.runs {
		if r.RunID == id {
			summary := summarize(r)
			return &summary, nil
		}
	}
	return nil, errors.NotFound(fmt.Sprintf("run %s", id))
}

func summarize(r *stats.RunResult) ports.RunSummary {
	return ports.RunSummary{
		RunID:         r.RunID,
		Fingerprint:   r.Fingerprint,
		Seed:          r.Seed,
		Iterations:    r.Iterations,
		ObservedMeanD: r.Observed.Distance.Mean,
		ObservedMeanT: r.Observed.Time.Mean,
		PDistance:     r.PValues.Distance,
		PTime:         r.PValues.Time,
		Policy:        r.Diagnostics.Policy,
		RowsDropped:   r.Diagnostics.RowsDropped,
		CreatedAt:     r.StartedAt,
	}
}

// Runs returns a copy of every stored result
func (s *InMemoryRunRepository) Runs() []*stats.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*stats.RunResult, len(s.runs))
	copy(out, s.runs)
	return out
}

// RecordingReporter is a ReportPort that keeps what it receives
type RecordingReporter struct {
	mu      sync.Mutex
	Results []*stats.RunResult
	Err     error
}

var _ ports.ReportPort = (*RecordingReporter)(nil)

// Report records result and returns Err
func (r *RecordingReporter) Report(ctx context.Context, result *stats.RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, result)
	return r.Err
}

// RunIDs returns the ids of the recorded results
func (r *RecordingReporter) RunIDs() []core.RunID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]core.RunID, len(r.Results))
	for i, res := range r.Results {
		ids[i] = res.RunID
	}
	return ids
}
