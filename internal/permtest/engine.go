package permtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/domain/travel"
	"proxtest/internal"
	"proxtest/ports"

	"golang.org/x/sync/errgroup"
)

// Context is the immutable per-run input shared read-only by every worker
type Context struct {
	Registry    *travel.CommunityRegistry
	Lookup      *travel.LookupTable
	Observed    *travel.ObservedTable
	Index       PositionIndex
	Fingerprint core.Hash
}

// NewContext maps the observed pairs onto the canonical ordering. A nil
// registry derives the ordering from the lookup table. Any name the ordering
// lacks is fatal here, before a single iteration runs.
func NewContext(registry *travel.CommunityRegistry, lookup *travel.LookupTable, observed *travel.ObservedTable) (*Context, error) {
	if lookup == nil || lookup.Len() == 0 {
		return nil, fmt.Errorf("%w: lookup", core.ErrEmptyInput)
	}
	if observed == nil || observed.Len() == 0 {
		return nil, fmt.Errorf("%w: observed", core.ErrEmptyInput)
	}

	if registry == nil {
		registry = travel.NewCommunityRegistry(lookup)
	}
	if registry.Len() < 2 {
		return nil, core.NewSchemaError("lookup", "", -1, "at least two distinct communities are required")
	}

	idx, err := MapIndices(registry, observed.Origins(), observed.Destinations())
	if err != nil {
		return nil, err
	}

	return &Context{
		Registry:    registry,
		Lookup:      lookup,
		Observed:    observed,
		Index:       idx,
		Fingerprint: travel.Fingerprint(lookup, observed),
	}, nil
}

// Options configures an Engine
type Options struct {
	Iterations int
	Workers    int
	Seed       *int64 // nil seeds from the clock; the chosen seed is reported
	Policy     stats.MissingPolicy
}

// Validate checks option ranges
func (o Options) Validate() error {
	if o.Iterations < 1 {
		return core.NewConfigError("iterations", "must be at least 1")
	}
	if o.Workers < 1 {
		return core.NewConfigError("workers", "must be at least 1")
	}
	if !o.Policy.Valid() {
		return core.NewConfigError("missing_policy", fmt.Sprintf("unknown policy %q", o.Policy))
	}
	return nil
}

// Engine runs the permutation test
type Engine struct {
	rng    ports.RNGPort
	logger *internal.Logger
	opts   Options
}

var _ ports.BatteryPort = (*Engine)(nil)

// NewEngine creates an engine with validated options
func NewEngine(rng ports.RNGPort, logger *internal.Logger, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{rng: rng, logger: logger, opts: opts}, nil
}

// Run prepares the run context from input and executes the test
func (e *Engine) Run(ctx context.Context, input *ports.TestInput) (*stats.RunResult, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: no test input", core.ErrEmptyInput)
	}
	tc, err := NewContext(input.Registry, input.Lookup, input.Observed)
	if err != nil {
		return nil, err
	}
	return e.RunContext(ctx, tc)
}

// RunContext executes all iterations over a prepared context. The first
// error from any iteration cancels the rest.
func (e *Engine) RunContext(ctx context.Context, tc *Context) (*stats.RunResult, error) {
	started := time.Now()
	seed := e.resolveSeed(started)
	k := e.opts.Iterations

	observed, err := Observe(tc.Observed)
	if err != nil {
		return nil, err
	}

	workers := e.opts.Workers
	if workers > k {
		workers = k
	}

	e.logger.Debug("permutation test: %d communities, %d observed rows, %d lookup pairs, %d iterations, %d workers, seed %d",
		tc.Registry.Len(), tc.Observed.Len(), tc.Lookup.Len(), k, workers, seed)

	perIteration := make([]stats.IterationStatistic, k)
	generator := NewGenerator(e.rng, seed)
	joiner := NewJoiner(tc.Lookup, e.opts.Policy)
	names := tc.Registry.Names()

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int, workers)

	g.Go(func() error {
		defer close(jobs)
		for it := 1; it <= k; it++ {
			select {
			case jobs <- it:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var completed atomic.Int64
	step := int64(k / 10)
	if step == 0 {
		step = 1
	}

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			// Private buffers; only perIteration[it-1] is written, by exactly one worker.
			var err error
			perm := make([]travel.Community, len(names))
			origins := make([]travel.Community, tc.Index.Len())
			destinations := make([]travel.Community, tc.Index.Len())
			rows := JoinedRows{
				Distances: make([]float64, 0, tc.Index.Len()),
				Times:     make([]float64, 0, tc.Index.Len()),
			}

			for it := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}

				perm, err = generator.Permutation(gctx, it, names, perm)
				if err != nil {
					return err
				}
				ReconstructInto(perm, tc.Index, origins, destinations)
				if err := joiner.JoinInto(it, origins, destinations, &rows); err != nil {
					return err
				}
				statistic, err := IterationMeans(it, rows)
				if err != nil {
					return err
				}
				perIteration[it-1] = statistic

				if done := completed.Add(1); done%step == 0 {
					e.logger.Trace("permutation progress: %d/%d iterations", done, k)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	pvalues, err := PValues(perIteration, observed)
	if err != nil {
		return nil, err
	}

	diag := stats.Diagnostics{Policy: e.opts.Policy}
	for _, it := range perIteration {
		if it.RowsDropped > 0 {
			diag.RowsDropped += it.RowsDropped
			diag.IterationsAffected++
		}
	}
	if diag.RowsDropped > 0 {
		e.logger.Warn("dropped %d unresolved permuted rows across %d of %d iterations",
			diag.RowsDropped, diag.IterationsAffected, k)
	}

	result := &stats.RunResult{
		RunID:        core.NewRunID(),
		Seed:         seed,
		Iterations:   k,
		Workers:      workers,
		Communities:  tc.Registry.Len(),
		ObservedRows: tc.Observed.Len(),
		LookupPairs:  tc.Lookup.Len(),
		Fingerprint:  tc.Fingerprint,
		Observed:     observed,
		PValues:      pvalues,
		NullDistance: SummarizeNull(Column(perIteration, stats.MetricDistance), observed.Distance.Mean),
		NullTime:     SummarizeNull(Column(perIteration, stats.MetricTime), observed.Time.Mean),
		PerIteration: perIteration,
		Diagnostics:  diag,
		StartedAt:    core.NewTimestamp(started),
		Elapsed:      time.Since(started),
	}

	e.logger.Info("permutation test done: p(distance)=%.4f p(time)=%.4f over %d iterations (%s)",
		pvalues.Distance, pvalues.Time, k, result.Elapsed.Round(time.Millisecond))
	return result, nil
}

func (e *Engine) resolveSeed(now time.Time) int64 {
	if e.opts.Seed != nil {
		return *e.opts.Seed
	}
	return now.UnixNano()
}
