package permtest

import (
	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/domain/travel"
)

// JoinedRows holds the travel costs resolved for one iteration
type JoinedRows struct {
	Distances []float64
	Times     []float64
	Dropped   int
}

// Joiner resolves permuted pairs against the lookup table by exact directed
// key. Under PolicyStrict a missing pair is a JoinError; under PolicyDrop
// the row is skipped and counted, and an iteration that loses every row is
// still a JoinError.
type Joiner struct {
	lookup *travel.LookupTable
	policy stats.MissingPolicy
}

// NewJoiner creates a joiner over an immutable lookup table
func NewJoiner(lookup *travel.LookupTable, policy stats.MissingPolicy) *Joiner {
	return &Joiner{lookup: lookup, policy: policy}
}

// Join resolves every (origins[i], destinations[i]) pair
func (j *Joiner) Join(iteration int, origins, destinations []travel.Community) (JoinedRows, error) {
	var rows JoinedRows
	err := j.JoinInto(iteration, origins, destinations, &rows)
	return rows, err
}

// JoinInto is Join reusing the slices already held by out
func (j *Joiner) JoinInto(iteration int, origins, destinations []travel.Community, out *JoinedRows) error {
	out.Distances = out.Distances[:0]
	out.Times = out.Times[:0]
	out.Dropped = 0

	var firstMissing *core.JoinError
	for i := range origins {
		key := travel.PairKey{Origin: origins[i], Destination: destinations[i]}
		cost, ok := j.lookup.Get(key)
		if !ok {
			missing := &core.JoinError{
				Iteration:   iteration,
				Row:         i,
				Origin:      string(key.Origin),
				Destination: string(key.Destination),
			}
			if j.policy != stats.PolicyDrop {
				return missing
			}
			if firstMissing == nil {
				firstMissing = missing
			}
			out.Dropped++
			continue
		}
		out.Distances = append(out.Distances, cost.DistanceKm)
		out.Times = append(out.Times, cost.TimeH)
	}

	if len(out.Distances) == 0 && firstMissing != nil {
		return firstMissing
	}
	return nil
}
