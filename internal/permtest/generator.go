package permtest

import (
	"context"
	"fmt"
	"math/rand"

	"proxtest/domain/travel"
	"proxtest/ports"
)

// StagePermutation names the RNG stream family used for label shuffles
const StagePermutation = "permutation"

// Generator produces uniform random permutations of the canonical ordering.
// Permutations are independent across iterations; repeats are allowed.
type Generator struct {
	rng  ports.RNGPort
	seed int64
}

// NewGenerator creates a generator whose iteration streams derive from seed
func NewGenerator(rng ports.RNGPort, seed int64) *Generator {
	return &Generator{rng: rng, seed: seed}
}

// Permutation writes the permutation for iteration into dst (reallocated
// when too short) and returns it. names is not modified.
func (g *Generator) Permutation(ctx context.Context, iteration int, names, dst []travel.Community) ([]travel.Community, error) {
	r, err := g.rng.Stream(ctx, StagePermutation, iteration, g.seed)
	if err != nil {
		return nil, fmt.Errorf("rng stream for iteration %d: %w", iteration, err)
	}
	return PermuteInto(r, names, dst), nil
}

// PermuteInto copies names into dst and applies a Fisher-Yates shuffle
func PermuteInto(r *rand.Rand, names, dst []travel.Community) []travel.Community {
	if cap(dst) < len(names) {
		dst = make([]travel.Community, len(names))
	}
	dst = dst[:len(names)]
	copy(dst, names)

	for i := len(dst) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		dst[i], dst[j] = dst[j], dst[i]
	}
	return dst
}
