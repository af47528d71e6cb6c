package testkit

import (
	"testing"

	"proxtest/domain/travel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProximityGenerator_Shape(t *testing.T) {
	config := DefaultProximityConfig()
	config.CommunityCount = 12
	config.ObservedPairs = 30

	gen, err := NewProximityDataGenerator(config)
	require.NoError(t, err)
	data := gen.Generate()

	assert.Len(t, data.Communities, 12)
	assert.Len(t, data.Full, 12*12)
	assert.Len(t, data.Observed, 30)

	selfPairs := 0
	for _, row := range data.Full {
		if row.Key().IsSelf() {
			selfPairs++
			assert.Zero(t, row.Cost.DistanceKm)
			continue
		}
		assert.Greater(t, row.Cost.DistanceKm, 0.0)
		assert.InDelta(t, row.Cost.DistanceKm/config.SpeedKmH, row.Cost.TimeH, 0.001)
	}
	assert.Equal(t, 12, selfPairs)

	for _, p := range data.Observed {
		assert.False(t, p.Key().IsSelf())
	}
}

func TestProximityGenerator_Deterministic(t *testing.T) {
	config := DefaultProximityConfig()

	a, err := NewProximityDataGenerator(config)
	require.NoError(t, err)
	b, err := NewProximityDataGenerator(config)
	require.NoError(t, err)

	assert.Equal(t, a.Generate(), b.Generate())
}

func TestProximityGenerator_ObservedCostsMatchFullTable(t *testing.T) {
	gen, err := NewProximityDataGenerator(DefaultProximityConfig())
	require.NoError(t, err)
	data := gen.Generate()

	costs := make(map[travel.PairKey]travel.TravelCost, len(data.Full))
	for _, row := range data.Full {
		costs[row.Key()] = row.Cost
	}
	for _, p := range data.Observed {
		assert.Equal(t, costs[p.Key()], p.Cost)
	}
}

func TestProximityGenerator_NeighboursAreCloserThanAverage(t *testing.T) {
	gen, err := NewProximityDataGenerator(DefaultProximityConfig())
	require.NoError(t, err)
	data := gen.Generate()

	var fullSum float64
	var fullCount int
	for _, row := range data.Full {
		if !row.Key().IsSelf() {
			fullSum += row.Cost.DistanceKm
			fullCount++
		}
	}
	var obsSum float64
	for _, p := range data.Observed {
		obsSum += p.Cost.DistanceKm
	}

	assert.Less(t, obsSum/float64(len(data.Observed)), fullSum/float64(fullCount)/2)
}

func TestNewProximityDataGenerator_Invalid(t *testing.T) {
	config := DefaultProximityConfig()
	config.CommunityCount = 1
	_, err := NewProximityDataGenerator(config)
	assert.Error(t, err)

	config = DefaultProximityConfig()
	config.SpeedKmH = 0
	_, err = NewProximityDataGenerator(config)
	assert.Error(t, err)
}

func TestTestKit_Synthesize(t *testing.T) {
	kit := NewTestKit()
	config := DefaultProximityConfig()
	config.CommunityCount = 10

	data, input, err := kit.Synthesize(config)
	require.NoError(t, err)

	// Self-pairs dropped; observed pairs excluded then restored from observed data
	assert.Equal(t, len(data.Full)-10, input.Lookup.Len())
	assert.Equal(t, config.ObservedPairs, input.Observed.Len())
}
