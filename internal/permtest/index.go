package permtest

import (
	"fmt"

	"proxtest/domain/core"
	"proxtest/domain/travel"
)

// PositionIndex holds, per observed row, the canonical positions of its
// origin and destination. It is computed once and never modified.
type PositionIndex struct {
	Origin      []int
	Destination []int
}

// Len returns the number of observed rows covered
func (p PositionIndex) Len() int { return len(p.Origin) }

// MapIndices resolves the observed origin and destination columns to 0-based
// canonical positions. An unknown name fails with a NameResolutionError.
func MapIndices(registry *travel.CommunityRegistry, origins, destinations []travel.Community) (PositionIndex, error) {
	if len(origins) != len(destinations) {
		return PositionIndex{}, core.NewSchemaError("observed", "", -1,
			fmt.Sprintf("origin column has %d rows, destination column has %d", len(origins), len(destinations)))
	}

	idx := PositionIndex{
		Origin:      make([]int, len(origins)),
		Destination: make([]int, len(destinations)),
	}
	for i := range origins {
		pos, ok := registry.Position(origins[i])
		if !ok {
			return PositionIndex{}, &core.NameResolutionError{Name: string(origins[i]), Column: travel.ColumnOrigin, Row: i}
		}
		idx.Origin[i] = pos

		pos, ok = registry.Position(destinations[i])
		if !ok {
			return PositionIndex{}, &core.NameResolutionError{Name: string(destinations[i]), Column: travel.ColumnDestination, Row: i}
		}
		idx.Destination[i] = pos
	}
	return idx, nil
}
