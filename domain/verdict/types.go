package verdict

import "fmt"

// Status is the conclusion drawn from one metric's p-value
type Status string

const (
	StatusSignificant    Status = "significant"
	StatusMarginal       Status = "marginal"
	StatusNotSignificant Status = "not_significant"
)

// Reason explains a status in reader terms
type Reason string

const (
	ReasonCloserThanChance Reason = "observed_pairs_closer_than_chance"
	ReasonWeakEvidence     Reason = "weak_evidence_of_proximity"
	ReasonLikelyRandom     Reason = "consistent_with_random_pairing"
)

// Verdict is the judgment on one metric. The p-value stays authoritative;
// the status only reads it against the chosen alpha.
type Verdict struct {
	Metric string  `json:"metric"`
	Status Status  `json:"status"`
	Reason Reason  `json:"reason"`
	PValue float64 `json:"p_value"`
	Alpha  float64 `json:"alpha"`
}

// Classify reads p against alpha. Values below twice alpha are marginal.
func Classify(metric string, p, alpha float64) Verdict {
	v := Verdict{Metric: metric, PValue: p, Alpha: alpha}
	switch {
	case p < alpha:
		v.Status, v.Reason = StatusSignificant, ReasonCloserThanChance
	case p < 2*alpha:
		v.Status, v.Reason = StatusMarginal, ReasonWeakEvidence
	default:
		v.Status, v.Reason = StatusNotSignificant, ReasonLikelyRandom
	}
	return v
}

func (v Verdict) String() string {
	return fmt.Sprintf("%s: %s (p=%.4f, alpha=%.2g)", v.Metric, v.Status, v.PValue, v.Alpha)
}
