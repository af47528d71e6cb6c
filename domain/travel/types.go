package travel

import "fmt"

// Community is a geographic community name
type Community string

func (c Community) String() string { return string(c) }

// PairKey is a directed (origin, destination) key; (A,B) and (B,A) are distinct
type PairKey struct {
	Origin      Community
	Destination Community
}

// IsSelf reports whether origin and destination are the same community
func (k PairKey) IsSelf() bool { return k.Origin == k.Destination }

func (k PairKey) String() string {
	return fmt.Sprintf("%s -> %s", k.Origin, k.Destination)
}

// TravelCost is the driving distance and time between two communities
type TravelCost struct {
	DistanceKm float64 `json:"distance_km"`
	TimeH      float64 `json:"time_h"`
}

// LookupRow is one row of the full pairwise distance/time table
type LookupRow struct {
	Origin      Community
	Destination Community
	Cost        TravelCost
}

// Key returns the directed pair key for the row
func (r LookupRow) Key() PairKey {
	return PairKey{Origin: r.Origin, Destination: r.Destination}
}

// ObservedPair is one replicate of a genetically linked community pair.
// Replicates may repeat the same community pair.
type ObservedPair struct {
	Origin      Community
	Destination Community
	Cost        TravelCost
}

// Key returns the directed pair key for the replicate
func (p ObservedPair) Key() PairKey {
	return PairKey{Origin: p.Origin, Destination: p.Destination}
}

// ObservedTable is the ordered observed-pairs table. Row order and length
// define the topology reused by every permutation iteration.
type ObservedTable struct {
	Pairs []ObservedPair
}

// Len returns the number of replicate rows
func (t *ObservedTable) Len() int { return len(t.Pairs) }

// Origins returns the origin column in row order
func (t *ObservedTable) Origins() []Community {
	out := make([]Community, len(t.Pairs))
	for i, p := range t.Pairs {
		out[i] = p.Origin
	}
	return out
}

// Destinations returns the destination column in row order
func (t *ObservedTable) Destinations() []Community {
	out := make([]Community, len(t.Pairs))
	for i, p := range t.Pairs {
		out[i] = p.Destination
	}
	return out
}

// Distances returns the distance column in row order
func (t *ObservedTable) Distances() []float64 {
	out := make([]float64, len(t.Pairs))
	for i, p := range t.Pairs {
		out[i] = p.Cost.DistanceKm
	}
	return out
}

// Times returns the time column in row order
func (t *ObservedTable) Times() []float64 {
	out := make([]float64, len(t.Pairs))
	for i, p := range t.Pairs {
		out[i] = p.Cost.TimeH
	}
	return out
}

// Keys returns the distinct directed pairs present in the table
func (t *ObservedTable) Keys() map[PairKey]struct{} {
	out := make(map[PairKey]struct{}, len(t.Pairs))
	for _, p := range t.Pairs {
		out[p.Key()] = struct{}{}
	}
	return out
}
