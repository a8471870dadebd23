package model

import "time"

// Summary is a summarized, human-readable report.
// It extracts the headline signals from the full run report for quick review.
//
// Design decision: We create a separate summary rather than just printing
// parts of Report because:
// 1. It provides a consistent, curated view of the most important signals
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. It separates presentation concerns from detection results
type Summary struct {
	// Hostname is the machine the engine ran on.
	Hostname string `json:"hostname"`

	// Platform is the operating system the probe set was filtered for.
	Platform Platform `json:"platform"`

	// DateScanned is when the run was performed.
	DateScanned time.Time `json:"date_scanned"`

	// Verdict is the aggregated boolean decision.
	Verdict bool `json:"verdict"`

	// VerdictText is the verdict as the conventional banner words.
	VerdictText string `json:"verdict_text"`

	// === Outcome Counts ===

	// ProbesRun is the number of probes that produced a result.
	ProbesRun int `json:"probes_run"`

	// DetectedCount is the number of probes that detected an artifact.
	DetectedCount int `json:"detected_count"`

	// NotDetectedCount is the number of probes that found nothing.
	NotDetectedCount int `json:"not_detected_count"`

	// InconclusiveCount is the number of probes that could not decide.
	InconclusiveCount int `json:"inconclusive_count"`

	// === Signals ===

	// Detections lists the probes that fired, with their evidence.
	Detections []Signal `json:"detections,omitempty"`

	// Uncertainties lists the probes that could not decide, with the reason.
	Uncertainties []Signal `json:"uncertainties,omitempty"`

	// Warnings carries over run-level warnings from the report.
	Warnings []string `json:"warnings,omitempty"`
}

// Signal is a single noteworthy probe result in the summary.
type Signal struct {
	// ProbeID is the probe's stable identifier.
	ProbeID string `json:"probe_id"`

	// Title is the probe's short display name.
	Title string `json:"title"`

	// Category is the signal category (virtualization, sandbox, debugging).
	Category string `json:"category"`

	// Evidence is the observation or failure reason.
	Evidence string `json:"evidence,omitempty"`
}

// NewSummary creates a Summary from a full run report.
func NewSummary(report *Report) *Summary {
	summary := &Summary{
		Hostname:          report.Hostname,
		Platform:          report.Platform,
		DateScanned:       report.DateScanned,
		Verdict:           report.Verdict,
		VerdictText:       report.VerdictText(),
		ProbesRun:         report.ProbesRun(),
		DetectedCount:     report.CountByOutcome(OutcomeDetected),
		NotDetectedCount:  report.CountByOutcome(OutcomeNotDetected),
		InconclusiveCount: report.CountByOutcome(OutcomeInconclusive),
		Warnings:          report.Warnings,
	}

	for _, result := range report.Results {
		switch result.Outcome {
		case OutcomeDetected:
			summary.Detections = append(summary.Detections, newSignal(result))
		case OutcomeInconclusive:
			summary.Uncertainties = append(summary.Uncertainties, newSignal(result))
		case OutcomeNotDetected:
			// Clean results carry no evidence worth surfacing.
		}
	}

	return summary
}

// newSignal builds a Signal from a probe result using the probe catalog.
func newSignal(result ProbeResult) Signal {
	info := GetProbeInfo(result.ProbeID)
	return Signal{
		ProbeID:  result.ProbeID,
		Title:    info.Title,
		Category: info.Category,
		Evidence: result.Evidence,
	}
}

// HasDetections returns true if any probe fired.
func (s *Summary) HasDetections() bool {
	return len(s.Detections) > 0
}

// HasUncertainties returns true if any probe could not decide.
func (s *Summary) HasUncertainties() bool {
	return len(s.Uncertainties) > 0
}
