package permtest

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"proxtest/adapters/rng"
	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/domain/travel"
	"proxtest/internal"
	"proxtest/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRNG struct {
	mock.Mock
}

func (m *MockRNG) Stream(ctx context.Context, stage string, iteration int, baseSeed int64) (*rand.Rand, error) {
	args := m.Called(ctx, stage, iteration, baseSeed)
	r, _ := args.Get(0).(*rand.Rand)
	return r, args.Error(1)
}

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelError)
}

func seed(v int64) *int64 { return &v }

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	engine, err := NewEngine(rng.NewAdapter(), quietLogger(), opts)
	require.NoError(t, err)
	return engine
}

func run(t *testing.T, engine *Engine, lookup *travel.LookupTable, observed *travel.ObservedTable) *stats.RunResult {
	t.Helper()
	result, err := engine.Run(context.Background(), &ports.TestInput{Lookup: lookup, Observed: observed})
	require.NoError(t, err)
	return result
}

func TestEngine_NeighbourPairsAreCloserThanChance(t *testing.T) {
	lookup, observed := gridFixture(t, 12)
	engine := newEngine(t, Options{Iterations: 2000, Workers: 4, Seed: seed(42), Policy: stats.PolicyStrict})

	result := run(t, engine, lookup, observed)

	assert.InDelta(t, 10.0, result.Observed.Distance.Mean, 1e-12)
	assert.Equal(t, observed.Len(), result.Observed.Rows)
	assert.Less(t, result.PValues.Distance, 0.01)
	assert.Less(t, result.PValues.Time, 0.01)
	assert.Len(t, result.PerIteration, 2000)
	assert.Equal(t, int64(42), result.Seed)
	assert.Equal(t, 12, result.Communities)
	assert.NotEmpty(t, result.Fingerprint)
	assert.Greater(t, result.NullDistance.Mean, result.Observed.Distance.Mean)

	for i, it := range result.PerIteration {
		require.Equal(t, i+1, it.Iteration)
		require.Equal(t, observed.Len(), it.RowsJoined)
	}
}

func TestEngine_PValuesInUnitInterval(t *testing.T) {
	lookup, observed := gridFixture(t, 5)

	for _, k := range []int{1, 2, 17, 300} {
		engine := newEngine(t, Options{Iterations: k, Workers: 3, Seed: seed(int64(k)), Policy: stats.PolicyStrict})
		result := run(t, engine, lookup, observed)

		assert.GreaterOrEqual(t, result.PValues.Distance, 0.0)
		assert.LessOrEqual(t, result.PValues.Distance, 1.0)
		assert.GreaterOrEqual(t, result.PValues.Time, 0.0)
		assert.LessOrEqual(t, result.PValues.Time, 1.0)
		assert.Equal(t, k, result.PValues.Iterations)
	}
}

func TestEngine_SingleIterationIsZeroOrOne(t *testing.T) {
	lookup, observed := gridFixture(t, 6)

	for s := int64(1); s <= 20; s++ {
		engine := newEngine(t, Options{Iterations: 1, Workers: 1, Seed: seed(s), Policy: stats.PolicyStrict})
		result := run(t, engine, lookup, observed)
		assert.Contains(t, []float64{0.0, 1.0}, result.PValues.Distance)
		assert.Contains(t, []float64{0.0, 1.0}, result.PValues.Time)
	}
}

func TestEngine_DeterministicAcrossWorkerCounts(t *testing.T) {
	lookup, observed := gridFixture(t, 9)

	serial := run(t, newEngine(t, Options{Iterations: 500, Workers: 1, Seed: seed(11), Policy: stats.PolicyStrict}), lookup, observed)
	parallel := run(t, newEngine(t, Options{Iterations: 500, Workers: 8, Seed: seed(11), Policy: stats.PolicyStrict}), lookup, observed)
	again := run(t, newEngine(t, Options{Iterations: 500, Workers: 8, Seed: seed(11), Policy: stats.PolicyStrict}), lookup, observed)

	assert.Equal(t, serial.PValues, parallel.PValues)
	assert.Equal(t, serial.PerIteration, parallel.PerIteration)
	assert.Equal(t, parallel.PValues, again.PValues)
	assert.NotEqual(t, serial.RunID, parallel.RunID)
}

func TestEngine_ScaleInvariance(t *testing.T) {
	lookup, observed := gridFixture(t, 8)

	scaledPairs := make([]travel.ObservedPair, observed.Len())
	for i, p := range observed.Pairs {
		p.Cost.DistanceKm *= 4
		p.Cost.TimeH *= 4
		scaledPairs[i] = p
	}
	scaledObserved := mustObserved(t, scaledPairs...)

	scaledRows := lookup.Rows()
	for i := range scaledRows {
		scaledRows[i].Cost.DistanceKm *= 4
		scaledRows[i].Cost.TimeH *= 4
	}
	scaledLookup, err := travel.NewLookupTable(scaledRows)
	require.NoError(t, err)

	opts := Options{Iterations: 400, Workers: 2, Seed: seed(5), Policy: stats.PolicyStrict}
	base := run(t, newEngine(t, opts), lookup, observed)
	scaled := run(t, newEngine(t, opts), scaledLookup, scaledObserved)

	assert.Equal(t, base.PValues, scaled.PValues)
}

func TestEngine_ConcreteScenarioStrictFails(t *testing.T) {
	// (A,B) is excluded from the lookup as the observed pair; some
	// permutation eventually lands on it.
	lookup := threeCommunityLookup(t)
	observed := mustObserved(t, observedPair("A", "B", 0.5))

	engine := newEngine(t, Options{Iterations: 200, Workers: 4, Seed: seed(3), Policy: stats.PolicyStrict})
	_, err := engine.Run(context.Background(), &ports.TestInput{Lookup: lookup, Observed: observed})

	require.Error(t, err)
	var joinErr *core.JoinError
	require.True(t, errors.As(err, &joinErr))
	assert.Equal(t, "A", joinErr.Origin)
	assert.Equal(t, "B", joinErr.Destination)
}

func TestEngine_DropPolicyReportsDiagnostics(t *testing.T) {
	lookup := threeCommunityLookup(t)
	observed := mustObserved(t, observedPair("A", "B", 0.5), observedPair("B", "C", 3))

	engine := newEngine(t, Options{Iterations: 300, Workers: 4, Seed: seed(3), Policy: stats.PolicyDrop})
	result := run(t, engine, lookup, observed)

	assert.Equal(t, stats.PolicyDrop, result.Diagnostics.Policy)
	assert.Greater(t, result.Diagnostics.RowsDropped, 0)
	assert.Equal(t, result.Diagnostics.RowsDropped, result.Diagnostics.IterationsAffected,
		"at most one of the two rows can map to (A,B)")

	for _, it := range result.PerIteration {
		assert.Equal(t, 2, it.RowsJoined+it.RowsDropped)
	}
}

func TestEngine_NameResolutionAbortsBeforeIterating(t *testing.T) {
	lookup := threeCommunityLookup(t)
	observed := mustObserved(t, observedPair("A", "Z", 1))

	rngPort := &MockRNG{}
	engine, err := NewEngine(rngPort, quietLogger(), Options{Iterations: 10, Workers: 2, Seed: seed(1), Policy: stats.PolicyStrict})
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), &ports.TestInput{Lookup: lookup, Observed: observed})
	assert.True(t, core.IsNameResolutionError(err))
	rngPort.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_NameResolutionUsesSuppliedRegistry(t *testing.T) {
	lookup := threeCommunityLookup(t)
	observed := mustObserved(t, observedPair("A", "Z", 1))
	registry := travel.NewCommunityRegistry(lookup)

	augmented, added, err := lookup.AugmentFromObserved(observed)
	require.NoError(t, err)
	require.Equal(t, 1, added)

	rngPort := &MockRNG{}
	engine, err := NewEngine(rngPort, quietLogger(), Options{Iterations: 5, Workers: 2, Seed: seed(1), Policy: stats.PolicyStrict})
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), &ports.TestInput{Lookup: augmented, Observed: observed, Registry: registry})
	require.Error(t, err)

	var nameErr *core.NameResolutionError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "Z", nameErr.Name)
	assert.Equal(t, travel.ColumnDestination, nameErr.Column)
	rngPort.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_RNGFailureStopsRun(t *testing.T) {
	lookup, observed := gridFixture(t, 4)
	streamErr := errors.New("entropy exhausted")

	rngPort := &MockRNG{}
	rngPort.On("Stream", mock.Anything, StagePermutation, mock.Anything, int64(1)).Return(nil, streamErr)

	engine, err := NewEngine(rngPort, quietLogger(), Options{Iterations: 50, Workers: 2, Seed: seed(1), Policy: stats.PolicyStrict})
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), &ports.TestInput{Lookup: lookup, Observed: observed})
	assert.ErrorIs(t, err, streamErr)
}

func TestEngine_Cancelled(t *testing.T) {
	lookup, observed := gridFixture(t, 6)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newEngine(t, Options{Iterations: 100, Workers: 2, Seed: seed(1), Policy: stats.PolicyStrict})
	_, err := engine.Run(ctx, &ports.TestInput{Lookup: lookup, Observed: observed})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_UnseededRecordsSeed(t *testing.T) {
	lookup, observed := gridFixture(t, 4)
	engine := newEngine(t, Options{Iterations: 5, Workers: 1, Policy: stats.PolicyStrict})

	result := run(t, engine, lookup, observed)
	assert.NotZero(t, result.Seed)
}

func TestNewEngine_InvalidOptions(t *testing.T) {
	tests := []Options{
		{Iterations: 0, Workers: 1, Policy: stats.PolicyStrict},
		{Iterations: 1, Workers: 0, Policy: stats.PolicyStrict},
		{Iterations: 1, Workers: 1, Policy: "lenient"},
	}
	for _, opts := range tests {
		_, err := NewEngine(rng.NewAdapter(), quietLogger(), opts)
		assert.ErrorIs(t, err, core.ErrInvalidConfig)
	}
}

func TestNewContext_Validation(t *testing.T) {
	lookup, observed := gridFixture(t, 3)

	_, err := NewContext(nil, nil, observed)
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, err = NewContext(nil, lookup, &travel.ObservedTable{})
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	tc, err := NewContext(nil, lookup, observed)
	require.NoError(t, err)
	assert.Equal(t, observed.Len(), tc.Index.Len())
	assert.Equal(t, 3, tc.Registry.Len())
}
