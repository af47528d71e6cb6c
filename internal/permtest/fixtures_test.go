package permtest

import (
	"testing"

	"proxtest/domain/travel"

	"github.com/stretchr/testify/require"
)

func lookupRow(o, d string, km float64) travel.LookupRow {
	return travel.LookupRow{
		Origin:      travel.Community(o),
		Destination: travel.Community(d),
		Cost:        travel.TravelCost{DistanceKm: km, TimeH: km / 60},
	}
}

func observedPair(o, d string, km float64) travel.ObservedPair {
	return travel.ObservedPair{
		Origin:      travel.Community(o),
		Destination: travel.Community(d),
		Cost:        travel.TravelCost{DistanceKm: km, TimeH: km / 60},
	}
}

// threeCommunityLookup holds every directed pair of A, B, C except (A,B)
func threeCommunityLookup(t *testing.T) *travel.LookupTable {
	t.Helper()
	table, err := travel.NewLookupTable([]travel.LookupRow{
		lookupRow("A", "C", 1),
		lookupRow("B", "A", 2),
		lookupRow("B", "C", 3),
		lookupRow("C", "A", 4),
		lookupRow("C", "B", 5),
	})
	require.NoError(t, err)
	return table
}

func mustObserved(t *testing.T, pairs ...travel.ObservedPair) *travel.ObservedTable {
	t.Helper()
	table, err := travel.NewObservedTable(pairs)
	require.NoError(t, err)
	return table
}

// gridFixture builds n communities on a line with symmetric distances
// |i-j|*10 km, and observed pairs between neighbours.
func gridFixture(t *testing.T, n int) (*travel.LookupTable, *travel.ObservedTable) {
	t.Helper()
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('A' + i))
	}

	var rows []travel.LookupRow
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := i - j
			if d < 0 {
				d = -d
			}
			rows = append(rows, lookupRow(names[i], names[j], float64(d*10)))
		}
	}
	lookup, err := travel.NewLookupTable(rows)
	require.NoError(t, err)

	var pairs []travel.ObservedPair
	for i := 0; i+1 < n; i++ {
		pairs = append(pairs, observedPair(names[i], names[i+1], 10))
	}
	pairs = append(pairs, observedPair(names[0], names[1], 10)) // replicate
	return lookup, mustObserved(t, pairs...)
}
