package ports

import (
	"context"

	"proxtest/domain/stats"
	"proxtest/domain/travel"
)

// BatteryPort runs the permutation significance test over prepared inputs
type BatteryPort interface {
	Run(ctx context.Context, input *TestInput) (*stats.RunResult, error)
}

// TestInput is the prepared, immutable input of one run
type TestInput struct {
	Lookup   *travel.LookupTable
	Observed *travel.ObservedTable
	// Registry is the canonical ordering taken from the lookup file as read.
	// nil derives it from Lookup.
	Registry *travel.CommunityRegistry
}
