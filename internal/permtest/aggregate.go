package permtest

import (
	"fmt"

	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/domain/travel"

	mstats "github.com/montanaflynn/stats"
)

// IterationMeans reduces one iteration's joined rows to mean distance and time
func IterationMeans(iteration int, rows JoinedRows) (stats.IterationStatistic, error) {
	meanD, err := mstats.Mean(rows.Distances)
	if err != nil {
		return stats.IterationStatistic{}, fmt.Errorf("iteration %d distance mean: %w", iteration, err)
	}
	meanT, err := mstats.Mean(rows.Times)
	if err != nil {
		return stats.IterationStatistic{}, fmt.Errorf("iteration %d time mean: %w", iteration, err)
	}
	return stats.IterationStatistic{
		Iteration:    iteration,
		MeanDistance: meanD,
		MeanTime:     meanT,
		RowsJoined:   len(rows.Distances),
		RowsDropped:  rows.Dropped,
	}, nil
}

// Observe computes mean, min and max of both metrics over every observed
// replicate. Replicates of one pair each count once.
func Observe(observed *travel.ObservedTable) (stats.ObservedStatistic, error) {
	if observed == nil || observed.Len() == 0 {
		return stats.ObservedStatistic{}, fmt.Errorf("%w: observed", core.ErrEmptyInput)
	}
	distance, err := summarize(observed.Distances())
	if err != nil {
		return stats.ObservedStatistic{}, fmt.Errorf("observed distance: %w", err)
	}
	time, err := summarize(observed.Times())
	if err != nil {
		return stats.ObservedStatistic{}, fmt.Errorf("observed time: %w", err)
	}
	return stats.ObservedStatistic{Distance: distance, Time: time, Rows: observed.Len()}, nil
}

func summarize(values []float64) (stats.Summary, error) {
	mean, err := mstats.Mean(values)
	if err != nil {
		return stats.Summary{}, err
	}
	min, err := mstats.Min(values)
	if err != nil {
		return stats.Summary{}, err
	}
	max, err := mstats.Max(values)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summary{Mean: mean, Min: min, Max: max}, nil
}
