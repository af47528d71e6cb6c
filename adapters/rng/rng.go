package rng

import (
	"context"
	"math/rand"

	"proxtest/ports"
)

// Adapter implements ports.RNGPort with math/rand sources
type Adapter struct{}

var _ ports.RNGPort = (*Adapter)(nil)

// NewAdapter creates a seeded RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Stream creates the RNG for one iteration of a stage
func (a *Adapter) Stream(ctx context.Context, stage string, iteration int, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(DeriveSeed(baseSeed, stage, iteration))), nil
}

// DeriveSeed mixes the base seed, a stage name and an iteration number into
// one source seed. Adjacent iterations get unrelated seeds.
func DeriveSeed(baseSeed int64, stage string, iteration int) int64 {
	x := uint64(baseSeed)
	x = splitmix64(x ^ uint64(hashString(stage)))
	x = splitmix64(x ^ uint64(iteration))
	return int64(x)
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
