package model

import (
	"time"
)

// NoProbesWarning is the run-level marker recorded when the registry
// yields no applicable probes. A zero-probe run is not negative
// evidence, so it is surfaced instead of silently reporting clean.
const NoProbesWarning = "no probes executed"

// Report is the main detection result structure. It carries one
// ProbeResult per applicable probe, in execution order, plus the
// aggregated verdict.
//
// Design decision: We use a single flat struct rather than nesting
// per-category sub-reports to simplify serialization and database
// storage. The Summary sub-struct groups the counts and headline
// signals for human-readable output.
type Report struct {
	// === Run Metadata ===

	// Hostname is the machine the engine ran on.
	Hostname string `json:"hostname"`

	// Platform is the operating system the probe set was filtered for.
	// Usually the current platform; differs under a platform override.
	Platform Platform `json:"platform"`

	// DateScanned is the timestamp when the run started.
	DateScanned time.Time `json:"date_scanned"`

	// Elapsed is the total wall-clock time of the run in nanoseconds.
	Elapsed time.Duration `json:"elapsed"`

	// === Results ===

	// Results holds one entry per applicable probe, in execution order.
	// Insertion order equals registry order; a probe that could not run
	// appears as INCONCLUSIVE rather than being omitted.
	Results []ProbeResult `json:"results"`

	// Verdict is true if at least one probe detected a virtualization,
	// sandbox, or debugger artifact. Inconclusive results never set it.
	Verdict bool `json:"verdict"`

	// === Run State ===

	// Warnings records run-level conditions that are not tied to a single
	// probe, such as NoProbesWarning for an empty probe set.
	Warnings []string `json:"warnings,omitempty"`

	// Summary contains the summarized signals for human-readable output.
	Summary *Summary `json:"summary,omitempty"`
}

// NewReport creates a new report for a run on the given host and platform.
func NewReport(hostname string, platform Platform) *Report {
	return &Report{
		Hostname:    hostname,
		Platform:    platform,
		DateScanned: time.Now(),
		Results:     make([]ProbeResult, 0),
	}
}

// AddResult appends a probe result. Results arrive in execution order
// and are never reordered afterwards, so reports diff cleanly between runs.
func (r *Report) AddResult(result ProbeResult) {
	r.Results = append(r.Results, result)
}

// AddWarning records a run-level warning.
func (r *Report) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// VerdictText returns the verdict as the conventional banner words.
func (r *Report) VerdictText() string {
	if r.Verdict {
		return "Detected"
	}
	return "Not Detected"
}

// CountByOutcome returns the number of results with the given outcome.
func (r *Report) CountByOutcome(outcome Outcome) int {
	count := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			count++
		}
	}
	return count
}

// ResultsByOutcome returns the results with the given outcome,
// preserving execution order.
func (r *Report) ResultsByOutcome(outcome Outcome) []ProbeResult {
	var results []ProbeResult
	for _, result := range r.Results {
		if result.Outcome == outcome {
			results = append(results, result)
		}
	}
	return results
}

// ProbesRun returns the number of probes that produced a result.
func (r *Report) ProbesRun() int {
	return len(r.Results)
}
