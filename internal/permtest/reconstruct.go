package permtest

import "proxtest/domain/travel"

// Reconstruct applies the fixed position index to one permutation:
// origins[i] = perm[idx.Origin[i]], destinations[i] = perm[idx.Destination[i]].
// Row order follows the observed table.
func Reconstruct(perm []travel.Community, idx PositionIndex) (origins, destinations []travel.Community) {
	origins = make([]travel.Community, idx.Len())
	destinations = make([]travel.Community, idx.Len())
	ReconstructInto(perm, idx, origins, destinations)
	return origins, destinations
}

// ReconstructInto is Reconstruct writing into caller-owned buffers of
// length idx.Len()
func ReconstructInto(perm []travel.Community, idx PositionIndex, origins, destinations []travel.Community) {
	for i := range idx.Origin {
		origins[i] = perm[idx.Origin[i]]
		destinations[i] = perm[idx.Destination[i]]
	}
}
