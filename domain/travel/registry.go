package travel

// CommunityRegistry is the canonical ordering of distinct community names.
// Each community appears exactly once and the order never changes after
// construction.
type CommunityRegistry struct {
	names     []Community
	positions map[Community]int
}

// NewCommunityRegistry derives the canonical ordering from a lookup table,
// in order of first appearance (origin before destination, row by row).
func NewCommunityRegistry(lookup *LookupTable) *CommunityRegistry {
	names := make([]Community, 0)
	for _, key := range lookup.order {
		names = append(names, key.Origin, key.Destination)
	}
	return NewCommunityRegistryFromNames(names)
}

// NewCommunityRegistryFromRows derives the ordering from raw lookup rows
// before any filtering or augmentation. Self-pairs are skipped.
func NewCommunityRegistryFromRows(rows []LookupRow) *CommunityRegistry {
	names := make([]Community, 0, 2*len(rows))
	for _, row := range rows {
		if row.Origin == row.Destination {
			continue
		}
		names = append(names, row.Origin, row.Destination)
	}
	return NewCommunityRegistryFromNames(names)
}

// NewCommunityRegistryFromNames builds an ordering from an explicit list,
// keeping the first occurrence of repeated names.
func NewCommunityRegistryFromNames(names []Community) *CommunityRegistry {
	r := &CommunityRegistry{
		names:     make([]Community, 0, len(names)),
		positions: make(map[Community]int, len(names)),
	}
	for _, name := range names {
		if _, ok := r.positions[name]; ok {
			continue
		}
		r.positions[name] = len(r.names)
		r.names = append(r.names, name)
	}
	return r
}

// Len returns the number of communities
func (r *CommunityRegistry) Len() int { return len(r.names) }

// Position returns the 0-based canonical position of name
func (r *CommunityRegistry) Position(name Community) (int, bool) {
	pos, ok := r.positions[name]
	return pos, ok
}

// Names returns a copy of the canonical ordering
func (r *CommunityRegistry) Names() []Community {
	out := make([]Community, len(r.names))
	copy(out, r.names)
	return out
}
