package battery

import (
	"context"

	"proxtest/domain/stats"
	"proxtest/domain/verdict"
	"proxtest/internal"
	"proxtest/ports"
)

// DefaultAlpha is the significance level used when none is configured
const DefaultAlpha = 0.05

// Referee runs a battery and reads each metric's p-value against alpha
type Referee struct {
	inner  ports.BatteryPort
	alpha  float64
	logger *internal.Logger
}

var _ ports.BatteryPort = (*Referee)(nil)

// NewReferee wraps inner. Alpha outside (0, 1) falls back to DefaultAlpha.
func NewReferee(inner ports.BatteryPort, alpha float64, logger *internal.Logger) *Referee {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Referee{inner: inner, alpha: alpha, logger: logger}
}

// Run executes the inner battery and attaches verdicts to its result
func (r *Referee) Run(ctx context.Context, input *ports.TestInput) (*stats.RunResult, error) {
	result, err := r.inner.Run(ctx, input)
	if err != nil {
		return nil, err
	}

	result.Verdicts = []verdict.Verdict{
		verdict.Classify(string(stats.MetricDistance), result.PValues.Distance, r.alpha),
		verdict.Classify(string(stats.MetricTime), result.PValues.Time, r.alpha),
	}
	for _, v := range result.Verdicts {
		r.logger.Debug("verdict %s", v)
	}
	return result, nil
}
