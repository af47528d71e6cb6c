package report

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"

	"proxtest/domain/stats"
	"proxtest/internal/errors"
	"proxtest/ports"
)

// IterationsHeader is the header row of the per-iteration CSV
var IterationsHeader = []string{"iteration", "mean_distance_km", "mean_time_h"}

// IterationCSVReporter writes the null distribution as <run id>_iterations.csv
type IterationCSVReporter struct {
	dir string
}

var _ ports.ReportPort = (*IterationCSVReporter)(nil)

// NewIterationCSVReporter creates a reporter writing under dir
func NewIterationCSVReporter(dir string) *IterationCSVReporter {
	return &IterationCSVReporter{dir: dir}
}

// Report writes one row per iteration, in iteration order
func (r *IterationCSVReporter) Report(ctx context.Context, result *stats.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return errors.ReportFailed("csv", err)
	}

	file, err := os.Create(Path(r.dir, result, "_iterations.csv"))
	if err != nil {
		return errors.ReportFailed("csv", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(IterationsHeader); err != nil {
		return errors.ReportFailed("csv", err)
	}
	for _, it := range result.PerIteration {
		record := []string{
			strconv.Itoa(it.Iteration),
			strconv.FormatFloat(it.MeanDistance, 'g', -1, 64),
			strconv.FormatFloat(it.MeanTime, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return errors.ReportFailed("csv", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.ReportFailed("csv", err)
	}
	return file.Close()
}
