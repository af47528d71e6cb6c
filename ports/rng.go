package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates an independent RNG for one iteration of a named stage.
	// The same (stage, iteration, baseSeed) always yields the same sequence,
	// regardless of which worker asks for it.
	Stream(ctx context.Context, stage string, iteration int, baseSeed int64) (*rand.Rand, error)
}
