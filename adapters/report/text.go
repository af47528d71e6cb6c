package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"proxtest/domain/stats"
	"proxtest/ports"
)

// TextReporter prints a human-readable summary of a run
type TextReporter struct {
	out io.Writer
}

var _ ports.ReportPort = (*TextReporter)(nil)

// NewTextReporter creates a reporter writing to out
func NewTextReporter(out io.Writer) *TextReporter {
	return &TextReporter{out: out}
}

// Report writes the summary table
func (r *TextReporter) Report(ctx context.Context, result *stats.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", result.RunID)
	fmt.Fprintf(tw, "inputs\t%d communities, %d observed pairs, %d lookup pairs (%s)\n",
		result.Communities, result.ObservedRows, result.LookupPairs, result.Fingerprint.Short())
	fmt.Fprintf(tw, "iterations\t%d (seed %d, %d workers, %s)\n",
		result.Iterations, result.Seed, result.Workers, result.Elapsed.Round(time.Millisecond))
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "metric\tobserved mean\tnull mean\tnull 95% range\tp-value")
	fmt.Fprintf(tw, "distance (km)\t%.3f\t%.3f\t%.3f .. %.3f\t%s\n",
		result.Observed.Distance.Mean, result.NullDistance.Mean,
		result.NullDistance.Q025, result.NullDistance.Q975,
		formatP(result.PValues.Distance, result.PValues.LessCountDistance, result.PValues.Iterations))
	fmt.Fprintf(tw, "time (h)\t%.3f\t%.3f\t%.3f .. %.3f\t%s\n",
		result.Observed.Time.Mean, result.NullTime.Mean,
		result.NullTime.Q025, result.NullTime.Q975,
		formatP(result.PValues.Time, result.PValues.LessCountTime, result.PValues.Iterations))

	for _, v := range result.Verdicts {
		fmt.Fprintf(tw, "verdict\t%s\n", v)
	}

	if d := result.Diagnostics; d.RowsDropped > 0 || d.LookupAugmented > 0 {
		fmt.Fprintln(tw, "\t")
		fmt.Fprintf(tw, "policy\t%s\n", d.Policy)
		if d.LookupAugmented > 0 {
			fmt.Fprintf(tw, "lookup augmented\t%d pairs from observed data\n", d.LookupAugmented)
		}
		if d.RowsDropped > 0 {
			fmt.Fprintf(tw, "rows dropped\t%d across %d iterations\n", d.RowsDropped, d.IterationsAffected)
		}
	}
	return tw.Flush()
}

func formatP(p float64, less, iterations int) string {
	return fmt.Sprintf("%.4f (%d/%d)", p, less, iterations)
}
