package stats

import (
	"time"

	"proxtest/domain/core"
	"proxtest/domain/verdict"
)

// Metric names one of the two travel measures under test
type Metric string

const (
	MetricDistance Metric = "distance_km"
	MetricTime     Metric = "time_h"
)

// MissingPolicy decides what a permuted pair absent from the lookup does
type MissingPolicy string

const (
	// PolicyStrict aborts the whole run on the first missing pair
	PolicyStrict MissingPolicy = "strict"
	// PolicyDrop excludes the row from that iteration's means and counts it
	PolicyDrop MissingPolicy = "drop"
)

// Valid reports whether p is a known policy
func (p MissingPolicy) Valid() bool {
	return p == PolicyStrict || p == PolicyDrop
}

// Summary holds mean, min and max of one metric
type Summary struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// IterationStatistic is the mean permuted travel cost of one iteration
type IterationStatistic struct {
	Iteration    int     `json:"iteration"` // 1..K
	MeanDistance float64 `json:"mean_distance_km"`
	MeanTime     float64 `json:"mean_time_h"`
	RowsJoined   int     `json:"rows_joined"`
	RowsDropped  int     `json:"rows_dropped,omitempty"`
}

// ObservedStatistic summarizes the observed-pairs table, replicates included
type ObservedStatistic struct {
	Distance Summary `json:"distance_km"`
	Time     Summary `json:"time_h"`
	Rows     int     `json:"rows"`
}

// PValueResult holds the one-sided empirical p-values
type PValueResult struct {
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
	// LessCount* are the numbers of iterations strictly below the observed mean
	LessCountDistance int `json:"less_count_distance"`
	LessCountTime     int `json:"less_count_time"`
	Iterations        int `json:"iterations"`
}

// NullSummary describes the permutation null distribution of one metric.
// ZScore and NormalP are diagnostics; the empirical p-value is authoritative.
type NullSummary struct {
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Q025    float64 `json:"q025"`
	Median  float64 `json:"median"`
	Q975    float64 `json:"q975"`
	ZScore  float64 `json:"z_score"`
	NormalP float64 `json:"normal_p"`
}

// Diagnostics records how the missing-pair policy affected the run
type Diagnostics struct {
	Policy             MissingPolicy `json:"policy"`
	RowsDropped        int           `json:"rows_dropped"`
	IterationsAffected int           `json:"iterations_affected"`
	LookupAugmented    int           `json:"lookup_augmented"`
}

// RunResult is everything a run produces, handed to reporting collaborators
type RunResult struct {
	RunID        core.RunID           `json:"run_id"`
	Seed         int64                `json:"seed"`
	Iterations   int                  `json:"iterations"`
	Workers      int                  `json:"workers"`
	Communities  int                  `json:"communities"`
	ObservedRows int                  `json:"observed_rows"`
	LookupPairs  int                  `json:"lookup_pairs"`
	Fingerprint  core.Hash            `json:"fingerprint"`
	Observed     ObservedStatistic    `json:"observed"`
	PValues      PValueResult         `json:"p_values"`
	NullDistance NullSummary          `json:"null_distance"`
	NullTime     NullSummary          `json:"null_time"`
	PerIteration []IterationStatistic `json:"per_iteration"`
	Diagnostics  Diagnostics          `json:"diagnostics"`
	Verdicts     []verdict.Verdict    `json:"verdicts,omitempty"`
	StartedAt    core.Timestamp       `json:"started_at"`
	Elapsed      time.Duration        `json:"elapsed"`
}
