package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"proxtest/domain/stats"
	"proxtest/internal/errors"
	"proxtest/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownReporter writes <run id>.md to a directory, plus a rendered
// <run id>.html when HTML is enabled
type MarkdownReporter struct {
	dir  string
	html bool
}

var _ ports.ReportPort = (*MarkdownReporter)(nil)

// NewMarkdownReporter creates a reporter writing under dir
func NewMarkdownReporter(dir string, withHTML bool) *MarkdownReporter {
	return &MarkdownReporter{dir: dir, html: withHTML}
}

// Report renders and writes the report files
func (r *MarkdownReporter) Report(ctx context.Context, result *stats.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return errors.ReportFailed("markdown", err)
	}

	md := RenderMarkdown(result)
	if err := os.WriteFile(Path(r.dir, result, ".md"), md, 0o644); err != nil {
		return errors.ReportFailed("markdown", err)
	}

	if r.html {
		page := RenderHTML(md, fmt.Sprintf("Permutation test %s", result.RunID))
		if err := os.WriteFile(Path(r.dir, result, ".html"), page, 0o644); err != nil {
			return errors.ReportFailed("html", err)
		}
	}
	return nil
}

// Path returns the report file for result with the given suffix
func Path(dir string, result *stats.RunResult, suffix string) string {
	return filepath.Join(dir, result.RunID.String()+suffix)
}

// RenderMarkdown formats a run as a markdown document
func RenderMarkdown(result *stats.RunResult) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Community proximity permutation test\n\n")
	fmt.Fprintf(&b, "- **Run:** `%s`\n", result.RunID)
	fmt.Fprintf(&b, "- **Started:** %s\n", result.StartedAt.Time().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Inputs:** %d communities, %d observed pairs, %d lookup pairs\n",
		result.Communities, result.ObservedRows, result.LookupPairs)
	fmt.Fprintf(&b, "- **Fingerprint:** `%s`\n", result.Fingerprint)
	fmt.Fprintf(&b, "- **Iterations:** %d (seed `%d`, %d workers)\n\n", result.Iterations, result.Seed, result.Workers)

	b.WriteString("## Result\n\n")
	b.WriteString("| Metric | Observed mean | Null mean | Null std-dev | Null 2.5% | Null median | Null 97.5% | p-value |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
	writeMetricRow(&b, "Distance (km)", result.Observed.Distance, result.NullDistance, result.PValues.Distance)
	writeMetricRow(&b, "Time (h)", result.Observed.Time, result.NullTime, result.PValues.Time)
	b.WriteString("\n")

	fmt.Fprintf(&b, "The p-value is the share of the %d permutations whose mean fell strictly below the observed mean "+
		"(%d for distance, %d for time). ", result.PValues.Iterations, result.PValues.LessCountDistance, result.PValues.LessCountTime)
	b.WriteString("Small values mean observed pairs travel less than randomly relabelled communities would.\n\n")

	if len(result.Verdicts) > 0 {
		b.WriteString("## Verdict\n\n")
		for _, v := range result.Verdicts {
			fmt.Fprintf(&b, "- **%s:** %s at alpha %.2g (%s)\n", v.Metric, v.Status, v.Alpha, v.Reason)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Normal approximation\n\n")
	b.WriteString("| Metric | z-score | Normal p |\n|---|---:|---:|\n")
	fmt.Fprintf(&b, "| Distance (km) | %.3f | %.4g |\n", result.NullDistance.ZScore, result.NullDistance.NormalP)
	fmt.Fprintf(&b, "| Time (h) | %.3f | %.4g |\n\n", result.NullTime.ZScore, result.NullTime.NormalP)

	d := result.Diagnostics
	b.WriteString("## Diagnostics\n\n")
	fmt.Fprintf(&b, "- Missing-pair policy: `%s`\n", d.Policy)
	fmt.Fprintf(&b, "- Lookup pairs added from observed data: %d\n", d.LookupAugmented)
	fmt.Fprintf(&b, "- Permuted rows dropped: %d across %d iterations\n", d.RowsDropped, d.IterationsAffected)
	return b.Bytes()
}

func writeMetricRow(b *bytes.Buffer, label string, observed stats.Summary, null stats.NullSummary, p float64) {
	fmt.Fprintf(b, "| %s | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.4f |\n",
		label, observed.Mean, null.Mean, null.StdDev, null.Q025, null.Median, null.Q975, p)
}

// RenderHTML converts markdown into a standalone HTML page
func RenderHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}
