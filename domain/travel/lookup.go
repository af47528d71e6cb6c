package travel

import (
	"fmt"
	"math"
	"strconv"

	"proxtest/domain/core"
)

const lookupTableName = "lookup"

// LookupTable maps directed community pairs to travel cost. It is immutable
// once built and safe for concurrent reads.
type LookupTable struct {
	costs map[PairKey]TravelCost
	order []PairKey // insertion order, for deterministic iteration
}

// LookupBuildStats records what BuildLookupTable removed from the raw table
type LookupBuildStats struct {
	InputRows        int
	SelfPairsDropped int
	ObservedDropped  int
	Kept             int
}

// NewLookupTable indexes rows by (origin, destination). Duplicate keys,
// empty names and non-finite or negative costs are schema errors.
func NewLookupTable(rows []LookupRow) (*LookupTable, error) {
	t := &LookupTable{
		costs: make(map[PairKey]TravelCost, len(rows)),
		order: make([]PairKey, 0, len(rows)),
	}
	for i, row := range rows {
		if err := validateRow(lookupTableName, i, row.Origin, row.Destination, row.Cost); err != nil {
			return nil, err
		}
		key := row.Key()
		if _, dup := t.costs[key]; dup {
			return nil, core.NewSchemaError(lookupTableName, "", i, fmt.Sprintf("duplicate pair %s", key))
		}
		t.costs[key] = row.Cost
		t.order = append(t.order, key)
	}
	return t, nil
}

// BuildLookupTable prepares a lookup table from a full pairwise table by
// dropping self-pairs and, when excludeObserved is set, every pair present in
// the observed table.
func BuildLookupTable(rows []LookupRow, observed *ObservedTable, excludeObserved bool) (*LookupTable, LookupBuildStats, error) {
	stats := LookupBuildStats{InputRows: len(rows)}

	var observedKeys map[PairKey]struct{}
	if excludeObserved && observed != nil {
		observedKeys = observed.Keys()
	}

	kept := make([]LookupRow, 0, len(rows))
	for _, row := range rows {
		key := row.Key()
		if key.IsSelf() {
			stats.SelfPairsDropped++
			continue
		}
		if _, ok := observedKeys[key]; ok {
			stats.ObservedDropped++
			continue
		}
		kept = append(kept, row)
	}

	table, err := NewLookupTable(kept)
	if err != nil {
		return nil, stats, err
	}
	stats.Kept = table.Len()
	return table, stats, nil
}

// Get returns the travel cost for a directed pair
func (t *LookupTable) Get(key PairKey) (TravelCost, bool) {
	cost, ok := t.costs[key]
	return cost, ok
}

// Len returns the number of pairs in the table
func (t *LookupTable) Len() int { return len(t.order) }

// Keys returns the pair keys in insertion order
func (t *LookupTable) Keys() []PairKey {
	out := make([]PairKey, len(t.order))
	copy(out, t.order)
	return out
}

// Rows returns the table contents in insertion order
func (t *LookupTable) Rows() []LookupRow {
	out := make([]LookupRow, len(t.order))
	for i, key := range t.order {
		out[i] = LookupRow{Origin: key.Origin, Destination: key.Destination, Cost: t.costs[key]}
	}
	return out
}

// AugmentFromObserved returns a new table that also holds the observed pairs'
// own travel cost for every key the lookup lacks. Replicates of one pair must
// agree on cost; self-pairs are never added. The receiver is left untouched.
func (t *LookupTable) AugmentFromObserved(observed *ObservedTable) (*LookupTable, int, error) {
	out := &LookupTable{
		costs: make(map[PairKey]TravelCost, len(t.costs)+observed.Len()),
		order: make([]PairKey, len(t.order), len(t.order)+observed.Len()),
	}
	copy(out.order, t.order)
	for k, v := range t.costs {
		out.costs[k] = v
	}

	seen := make(map[PairKey]TravelCost)
	added := 0
	for i, p := range observed.Pairs {
		key := p.Key()
		if prev, ok := seen[key]; ok {
			if prev != p.Cost {
				return nil, 0, core.NewSchemaError("observed", "", i,
					fmt.Sprintf("replicates of %s disagree on travel cost", key))
			}
			continue
		}
		seen[key] = p.Cost
		if key.IsSelf() {
			continue
		}
		if _, exists := out.costs[key]; exists {
			continue
		}
		out.costs[key] = p.Cost
		out.order = append(out.order, key)
		added++
	}
	return out, added, nil
}

// NewObservedTable validates replicate rows and wraps them in table order
func NewObservedTable(pairs []ObservedPair) (*ObservedTable, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: observed", core.ErrEmptyInput)
	}
	for i, p := range pairs {
		if err := validateRow("observed", i, p.Origin, p.Destination, p.Cost); err != nil {
			return nil, err
		}
	}
	out := make([]ObservedPair, len(pairs))
	copy(out, pairs)
	return &ObservedTable{Pairs: out}, nil
}

// Fingerprint hashes both input tables so a run can be tied to its inputs
func Fingerprint(lookup *LookupTable, observed *ObservedTable) core.Hash {
	parts := make([]string, 0, 4*(lookup.Len()+observed.Len())+2)
	parts = append(parts, "lookup")
	for _, row := range lookup.Rows() {
		parts = append(parts, string(row.Origin), string(row.Destination),
			formatFloat(row.Cost.DistanceKm), formatFloat(row.Cost.TimeH))
	}
	parts = append(parts, "observed")
	for _, p := range observed.Pairs {
		parts = append(parts, string(p.Origin), string(p.Destination),
			formatFloat(p.Cost.DistanceKm), formatFloat(p.Cost.TimeH))
	}
	return core.HashParts(parts...)
}

func validateRow(table string, row int, origin, destination Community, cost TravelCost) error {
	if origin == "" {
		return core.NewSchemaError(table, "origin", row, "empty community name")
	}
	if destination == "" {
		return core.NewSchemaError(table, "destination", row, "empty community name")
	}
	if math.IsNaN(cost.DistanceKm) || math.IsInf(cost.DistanceKm, 0) || cost.DistanceKm < 0 {
		return core.NewSchemaError(table, ColumnDistance, row, "distance must be a finite non-negative number")
	}
	if math.IsNaN(cost.TimeH) || math.IsInf(cost.TimeH, 0) || cost.TimeH < 0 {
		return core.NewSchemaError(table, ColumnTime, row, "time must be a finite non-negative number")
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Required column names shared by both input tables
const (
	ColumnOrigin      = "origin"
	ColumnDestination = "destination"
	ColumnDistance    = "curr_travel_dist_km"
	ColumnTime        = "curr_travel_time_h"
)

// RequiredColumns lists the columns every input table must carry
var RequiredColumns = []string{ColumnOrigin, ColumnDestination, ColumnDistance, ColumnTime}
