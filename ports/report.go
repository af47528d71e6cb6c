package ports

import (
	"context"

	"proxtest/domain/stats"
)

// ReportPort consumes final run statistics. It is invoked only after the
// p-values are computed.
type ReportPort interface {
	Report(ctx context.Context, result *stats.RunResult) error
}
