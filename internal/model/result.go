package model

import "time"

// ProbeResult is the immutable record of one probe execution.
// The runner produces exactly one per applicable probe, in registry order.
type ProbeResult struct {
	// ProbeID is the stable identifier of the probe that produced this result.
	ProbeID string `json:"probe_id"`

	// Outcome is the three-valued decision.
	Outcome Outcome `json:"outcome"`

	// OutcomeText is the human-readable outcome.
	OutcomeText string `json:"outcome_text"`

	// Evidence describes what was observed: the matched MAC prefix, the
	// offending process name, or the failure reason for an inconclusive
	// result. Empty when the outcome is NOT_DETECTED.
	Evidence string `json:"evidence,omitempty"`

	// Cost is the probe's elapsed execution time in nanoseconds.
	// Stamped by the runner for every probe, not only the timing one,
	// so slow probes show up in reports.
	Cost time.Duration `json:"cost"`
}

// Detected creates a ProbeResult with OutcomeDetected.
// The evidence should cite the concrete artifact that matched.
func Detected(probeID, evidence string) ProbeResult {
	return ProbeResult{
		ProbeID:     probeID,
		Outcome:     OutcomeDetected,
		OutcomeText: OutcomeDetected.String(),
		Evidence:    evidence,
	}
}

// NotDetected creates a ProbeResult with OutcomeNotDetected.
func NotDetected(probeID string) ProbeResult {
	return ProbeResult{
		ProbeID:     probeID,
		Outcome:     OutcomeNotDetected,
		OutcomeText: OutcomeNotDetected.String(),
	}
}

// Inconclusive creates a ProbeResult with OutcomeInconclusive.
// The reason explains why the probe could not decide; it is surfaced
// as evidence so operators can see what was unavailable.
func Inconclusive(probeID, reason string) ProbeResult {
	return ProbeResult{
		ProbeID:     probeID,
		Outcome:     OutcomeInconclusive,
		OutcomeText: OutcomeInconclusive.String(),
		Evidence:    reason,
	}
}
