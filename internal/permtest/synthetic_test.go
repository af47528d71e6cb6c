package permtest

import (
	"context"
	"testing"

	"proxtest/domain/stats"
	"proxtest/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_SyntheticStudy(t *testing.T) {
	kit := testkit.NewTestKit()
	_, input, err := kit.Synthesize(testkit.DefaultProximityConfig())
	require.NoError(t, err)

	engine, err := NewEngine(kit.RNGAdapter(), kit.Logger(), Options{
		Iterations: 300,
		Workers:    3,
		Seed:       seed(11),
		Policy:     stats.PolicyStrict,
	})
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 40, result.Communities)
	assert.Equal(t, 120, result.ObservedRows)
	assert.Zero(t, result.PValues.Distance)
	assert.Zero(t, result.PValues.Time)
	assert.Less(t, result.Observed.Distance.Mean, result.NullDistance.Q025)
	assert.Less(t, result.NullDistance.ZScore, 0.0)
	assert.Zero(t, result.Diagnostics.RowsDropped)
}
