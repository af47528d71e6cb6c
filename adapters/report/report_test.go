package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/domain/verdict"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *stats.RunResult {
	return &stats.RunResult{
		RunID:        core.RunID("run-test"),
		Seed:         42,
		Iterations:   3,
		Workers:      2,
		Communities:  4,
		ObservedRows: 5,
		LookupPairs:  12,
		Fingerprint:  core.HashParts("sample"),
		Observed: stats.ObservedStatistic{
			Distance: stats.Summary{Mean: 3, Min: 1, Max: 6},
			Time:     stats.Summary{Mean: 0.05, Min: 0.01, Max: 0.1},
			Rows:     5,
		},
		PValues: stats.PValueResult{
			Distance: 1.0 / 3, Time: 0, LessCountDistance: 1, LessCountTime: 0, Iterations: 3,
		},
		NullDistance: stats.NullSummary{Mean: 4, StdDev: 1, Q025: 2.5, Median: 4, Q975: 5.5, ZScore: -1, NormalP: 0.1587},
		NullTime:     stats.NullSummary{Mean: 0.07, StdDev: 0.01, Q025: 0.06, Median: 0.07, Q975: 0.08, ZScore: -2, NormalP: 0.0228},
		PerIteration: []stats.IterationStatistic{
			{Iteration: 1, MeanDistance: 2.5, MeanTime: 0.06, RowsJoined: 5},
			{Iteration: 2, MeanDistance: 4, MeanTime: 0.07, RowsJoined: 5},
			{Iteration: 3, MeanDistance: 5.5, MeanTime: 0.08, RowsJoined: 5},
		},
		Diagnostics: stats.Diagnostics{Policy: stats.PolicyDrop, RowsDropped: 2, IterationsAffected: 1, LookupAugmented: 3},
		Verdicts: []verdict.Verdict{
			verdict.Classify(string(stats.MetricDistance), 1.0/3, 0.05),
			verdict.Classify(string(stats.MetricTime), 0, 0.05),
		},
		StartedAt: core.NewTimestamp(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		Elapsed:   1500 * time.Millisecond,
	}
}

func TestTextReporter(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewTextReporter(&out).Report(context.Background(), sampleResult()))

	text := out.String()
	assert.Contains(t, text, "run-test")
	assert.Contains(t, text, "0.3333 (1/3)")
	assert.Contains(t, text, "0.0000 (0/3)")
	assert.Contains(t, text, "3 pairs from observed data")
	assert.Contains(t, text, "2 across 1 iterations")
	assert.Contains(t, text, "time_h: significant (p=0.0000, alpha=0.05)")
}

func TestTextReporter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	assert.ErrorIs(t, NewTextReporter(&out).Report(ctx, sampleResult()), context.Canceled)
	assert.Empty(t, out.String())
}

func TestMarkdownReporter_WritesMarkdownAndHTML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	result := sampleResult()

	require.NoError(t, NewMarkdownReporter(dir, true).Report(context.Background(), result))

	md, err := os.ReadFile(Path(dir, result, ".md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "| Distance (km) | 3.000 | 4.000 | 1.000 | 2.500 | 4.000 | 5.500 | 0.3333 |")
	assert.Contains(t, string(md), "`drop`")
	assert.Contains(t, string(md), "- **distance_km:** not_significant at alpha 0.05")

	page, err := os.ReadFile(Path(dir, result, ".html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<table>")
	assert.Contains(t, string(page), "<title>")
	assert.Contains(t, string(page), "run-test")
}

func TestMarkdownReporter_NoHTML(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()

	require.NoError(t, NewMarkdownReporter(dir, false).Report(context.Background(), result))

	_, err := os.Stat(Path(dir, result, ".html"))
	assert.True(t, os.IsNotExist(err))
}

func TestIterationCSVReporter(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()

	require.NoError(t, NewIterationCSVReporter(dir).Report(context.Background(), result))

	file, err := os.Open(Path(dir, result, "_iterations.csv"))
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, IterationsHeader, records[0])
	assert.Equal(t, []string{"1", "2.5", "0.06"}, records[1])
	assert.Equal(t, []string{"3", "5.5", "0.08"}, records[3])
}
