package permtest

import (
	"fmt"
	"math"
	"sort"

	"proxtest/domain/core"
	"proxtest/domain/stats"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PValues computes the one-sided empirical p-value of each metric: the
// fraction of iterations whose mean is strictly less than the observed mean.
// Ties count as not-less.
func PValues(iterations []stats.IterationStatistic, observed stats.ObservedStatistic) (stats.PValueResult, error) {
	k := len(iterations)
	if k == 0 {
		return stats.PValueResult{}, fmt.Errorf("%w: no iteration statistics", core.ErrEmptyInput)
	}

	result := stats.PValueResult{Iterations: k}
	for _, it := range iterations {
		if it.MeanDistance < observed.Distance.Mean {
			result.LessCountDistance++
		}
		if it.MeanTime < observed.Time.Mean {
			result.LessCountTime++
		}
	}
	result.Distance = float64(result.LessCountDistance) / float64(k)
	result.Time = float64(result.LessCountTime) / float64(k)
	return result, nil
}

// SummarizeNull describes the null distribution of one metric and places
// the observed mean on it. With fewer than two values, or zero spread, the
// normal approximation is undefined and ZScore and NormalP are left at 0.
func SummarizeNull(values []float64, observedMean float64) stats.NullSummary {
	if len(values) == 0 {
		return stats.NullSummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	summary := stats.NullSummary{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q025:   stat.Quantile(0.025, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q975:   stat.Quantile(0.975, stat.Empirical, sorted, nil),
	}

	if len(sorted) < 2 {
		summary.Mean = sorted[0]
		return summary
	}

	mean, std := stat.MeanStdDev(sorted, nil)
	summary.Mean = mean
	summary.StdDev = std
	if std > 0 && !math.IsNaN(std) {
		summary.ZScore = (observedMean - mean) / std
		summary.NormalP = distuv.UnitNormal.CDF(summary.ZScore)
	}
	return summary
}

// Column extracts one metric from the iteration statistics, in order
func Column(iterations []stats.IterationStatistic, metric stats.Metric) []float64 {
	out := make([]float64, len(iterations))
	for i, it := range iterations {
		if metric == stats.MetricTime {
			out[i] = it.MeanTime
		} else {
			out[i] = it.MeanDistance
		}
	}
	return out
}
