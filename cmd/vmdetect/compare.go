package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/vmdetect/internal/config"
	"github.com/nao1215/vmdetect/internal/database"
	"github.com/nao1215/vmdetect/internal/model"
	"github.com/spf13/cobra"
)

// Constants for verdict direction and probe change markers.
const (
	verdictDirectionWorsened  = "worsened"
	verdictDirectionImproved  = "improved"
	verdictDirectionUnchanged = "unchanged"
	outcomeNotRun             = "NOT_RUN"
)

// NewCompareCmd creates the compare command.
// This command compares detection runs with historical data stored in the
// database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [host]",
		Short: "Compare detection runs with historical data",
		Long: `Compare displays differences between two detection runs.

This command retrieves historical detection data from the database and shows:
- The verdict transition between the two runs
- Probes that newly detect an environment artifact
- Detections that are no longer present
- Probes whose outcome or evidence changed

The comparison requires at least two recorded runs for the host. Runs are
recorded by 'vmdetect detect' unless history is disabled. The host argument
defaults to this machine's hostname.

Examples:
  # Compare the latest two runs on this machine
  vmdetect compare

  # Compare the latest two runs recorded for another host
  vmdetect compare buildbox-03

  # Compare two specific runs by ID (see 'vmdetect history' for IDs)
  vmdetect compare --ids 3,7

  # Compare the latest run with the first run since a date
  vmdetect compare --since 2026-08-01

  # Output comparison in JSON format
  vmdetect compare --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// Comparison target flags
	cmd.Flags().Int64SliceP("ids", "i", nil,
		"Compare two specific runs by report ID (exactly two, comma-separated)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// The host defaults to this machine; an explicit argument selects
	// history recorded for another machine.
	explicitHost := len(args) > 0
	hostname, err := resolveHost(args)
	if err != nil {
		return err
	}

	// Open database
	db, err := database.Open(resolveDBDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	// Get comparison target flags
	ids, err := cmd.Flags().GetInt64Slice("ids")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	ctx := context.Background()
	return runComparison(ctx, cmd.OutOrStdout(), db, comparisonQuery{
		hostname:       hostname,
		explicitHost:   explicitHost,
		ids:            ids,
		sinceDate:      sinceDate,
		jsonOutput:     jsonOutput,
		markdownOutput: markdownOutput,
	})
}

// resolveHost returns the host whose history is queried: the positional
// argument when given, otherwise this machine's hostname.
func resolveHost(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to resolve local hostname (pass a host argument): %w", err)
	}
	return hostname, nil
}

// resolveDBDir returns the directory holding the history database: the
// history.dir setting from a discoverable config file, or the XDG data
// directory when no file sets one.
func resolveDBDir() string {
	if path := config.FindConfigFile(""); path != "" {
		if file, err := config.LoadConfigFile(path); err == nil && file.History.Dir != "" {
			return file.History.Dir
		}
	}
	return config.XDGDataDir()
}

// comparisonQuery bundles the selection and output settings of one
// compare invocation.
type comparisonQuery struct {
	hostname       string
	explicitHost   bool
	ids            []int64
	sinceDate      string
	jsonOutput     bool
	markdownOutput bool
}

// runComparison selects the two reports to compare and outputs the result.
func runComparison(ctx context.Context, w io.Writer, db *database.HistoryDB, q comparisonQuery) error {
	var previousReport, currentReport *model.Report
	var err error

	if len(q.ids) > 0 {
		previousReport, currentReport, err = reportPairByID(ctx, db, q.ids)
		if err != nil {
			return err
		}
		// An explicitly named host must match the selected reports
		if q.explicitHost && currentReport.Hostname != q.hostname {
			return fmt.Errorf("reports belong to %s, not %s", currentReport.Hostname, q.hostname)
		}
	} else {
		previousReport, currentReport, err = reportPairFromHistory(ctx, db, q.hostname, q.sinceDate)
		if err != nil {
			return err
		}
	}

	// Generate comparison result
	comparison := compareReports(previousReport, currentReport)

	// Output the result
	if q.jsonOutput {
		return outputComparisonJSON(w, comparison)
	}
	if q.markdownOutput {
		return outputComparisonMarkdown(w, comparison)
	}
	return outputComparisonText(w, comparison)
}

// reportPairByID loads two reports by ID and orders them so the older one
// is the comparison baseline, regardless of the order on the flag.
func reportPairByID(ctx context.Context, db *database.HistoryDB, ids []int64) (previous, current *model.Report, err error) {
	if len(ids) != 2 {
		return nil, nil, errors.New("--ids requires exactly two report IDs")
	}

	first, err := db.GetReportByID(ctx, ids[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get report with ID %d: %w", ids[0], err)
	}
	if first == nil {
		return nil, nil, fmt.Errorf("report with ID %d not found", ids[0])
	}

	second, err := db.GetReportByID(ctx, ids[1])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get report with ID %d: %w", ids[1], err)
	}
	if second == nil {
		return nil, nil, fmt.Errorf("report with ID %d not found", ids[1])
	}

	// Comparing runs from different machines is meaningless
	if first.Hostname != second.Hostname {
		return nil, nil, fmt.Errorf("reports %d and %d belong to different hosts (%s and %s)",
			ids[0], ids[1], first.Hostname, second.Hostname)
	}

	if first.DateScanned.After(second.DateScanned) {
		first, second = second, first
	}
	return first, second, nil
}

// reportPairFromHistory selects the comparison baseline from the host's
// recorded history: the first run after sinceDate when given, otherwise
// the second most recent run.
func reportPairFromHistory(ctx context.Context, db *database.HistoryDB, hostname, sinceDate string) (previous, current *model.Report, err error) {
	reports, err := db.GetHistory(ctx, hostname)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get detection history: %w", err)
	}

	if len(reports) == 0 {
		return nil, nil, fmt.Errorf("no detection history found for %s (run 'vmdetect detect' first)", hostname)
	}
	if len(reports) < 2 {
		return nil, nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(reports))
	}

	// Latest report is always the current one
	current = reports[0]

	if sinceDate != "" {
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Reports are sorted newest first, so iterate in reverse to find
		// the oldest run at or after the date
		for i := len(reports) - 1; i >= 0; i-- {
			r := reports[i]
			if r.DateScanned.After(parsedDate) || r.DateScanned.Equal(parsedDate) {
				previous = r
				break
			}
		}
		if previous == nil {
			return nil, nil, fmt.Errorf("no runs found since %s", sinceDate)
		}
		if previous == current {
			return nil, nil, fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", sinceDate)
		}
		return previous, current, nil
	}

	// Default: compare with the previous run
	return reports[1], current, nil
}

// ComparisonResult holds the result of comparing two detection runs.
type ComparisonResult struct {
	// Hostname is the machine whose runs are compared.
	Hostname string `json:"hostname"`

	// PreviousRun contains metadata about the older run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains metadata about the newer run.
	CurrentRun RunMetadata `json:"current_run"`

	// NewDetections contains probes that detect an artifact in the
	// current run but did not in the previous one.
	NewDetections []ProbeChange `json:"new_detections,omitempty"`

	// ResolvedDetections contains probes that detected an artifact in
	// the previous run but no longer do.
	ResolvedDetections []ProbeChange `json:"resolved_detections,omitempty"`

	// OutcomeChanges contains the remaining probes whose outcome or
	// evidence changed between the runs.
	OutcomeChanges []ProbeChange `json:"outcome_changes,omitempty"`

	// UnchangedCount is the number of probes with identical results.
	UnchangedCount int `json:"unchanged_count"`

	// VerdictChange describes the overall change between the runs.
	VerdictChange VerdictChange `json:"verdict_change"`
}

// RunMetadata contains metadata about one run for comparison display.
type RunMetadata struct {
	// Date is when the run was performed.
	Date time.Time `json:"date"`

	// Verdict is the aggregated verdict of the run.
	Verdict bool `json:"verdict"`

	// VerdictText is the verdict as banner words.
	VerdictText string `json:"verdict_text"`

	// ProbesRun is the number of probes that produced a result.
	ProbesRun int `json:"probes_run"`

	// DetectedCount is the number of probes that detected an artifact.
	DetectedCount int `json:"detected_count"`

	// NotDetectedCount is the number of probes that found nothing.
	NotDetectedCount int `json:"not_detected_count"`

	// InconclusiveCount is the number of probes that could not decide.
	InconclusiveCount int `json:"inconclusive_count"`
}

// ProbeChange records how one probe's result differs between two runs.
// A probe missing from one of the runs carries NOT_RUN as its outcome.
type ProbeChange struct {
	// ProbeID identifies the probe.
	ProbeID string `json:"probe_id"`

	// PreviousOutcome is the outcome in the older run.
	PreviousOutcome string `json:"previous_outcome"`

	// CurrentOutcome is the outcome in the newer run.
	CurrentOutcome string `json:"current_outcome"`

	// PreviousEvidence is the evidence recorded in the older run.
	PreviousEvidence string `json:"previous_evidence,omitempty"`

	// CurrentEvidence is the evidence recorded in the newer run.
	CurrentEvidence string `json:"current_evidence,omitempty"`
}

// VerdictChange describes the change in the verdict between runs.
type VerdictChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// DetectedDelta is the change in detected outcome count.
	DetectedDelta int `json:"detected_delta"`

	// NotDetectedDelta is the change in clean outcome count.
	NotDetectedDelta int `json:"not_detected_delta"`

	// InconclusiveDelta is the change in inconclusive outcome count.
	InconclusiveDelta int `json:"inconclusive_delta"`
}

// compareReports compares two detection runs and generates a comparison
// result.
func compareReports(previous, current *model.Report) *ComparisonResult {
	result := &ComparisonResult{
		Hostname:    current.Hostname,
		PreviousRun: newRunMetadata(previous),
		CurrentRun:  newRunMetadata(current),
	}

	// Build result maps keyed by probe ID
	previousResults := make(map[string]model.ProbeResult)
	for _, r := range previous.Results {
		previousResults[r.ProbeID] = r
	}
	currentResults := make(map[string]model.ProbeResult)
	for _, r := range current.Results {
		currentResults[r.ProbeID] = r
	}

	// Walk current results in execution order so output stays stable
	for _, cur := range current.Results {
		prev, ran := previousResults[cur.ProbeID]
		change := ProbeChange{
			ProbeID:         cur.ProbeID,
			PreviousOutcome: outcomeNotRun,
			CurrentOutcome:  cur.OutcomeText,
			CurrentEvidence: cur.Evidence,
		}
		if ran {
			change.PreviousOutcome = prev.OutcomeText
			change.PreviousEvidence = prev.Evidence
		}

		switch {
		case cur.Outcome == model.OutcomeDetected && (!ran || prev.Outcome != model.OutcomeDetected):
			result.NewDetections = append(result.NewDetections, change)
		case ran && prev.Outcome == model.OutcomeDetected && cur.Outcome != model.OutcomeDetected:
			result.ResolvedDetections = append(result.ResolvedDetections, change)
		case !ran || prev.Outcome != cur.Outcome || prev.Evidence != cur.Evidence:
			result.OutcomeChanges = append(result.OutcomeChanges, change)
		default:
			result.UnchangedCount++
		}
	}

	// Probes that ran before but are absent from the current run
	for _, prev := range previous.Results {
		if _, ran := currentResults[prev.ProbeID]; ran {
			continue
		}
		change := ProbeChange{
			ProbeID:          prev.ProbeID,
			PreviousOutcome:  prev.OutcomeText,
			PreviousEvidence: prev.Evidence,
			CurrentOutcome:   outcomeNotRun,
		}
		if prev.Outcome == model.OutcomeDetected {
			result.ResolvedDetections = append(result.ResolvedDetections, change)
		} else {
			result.OutcomeChanges = append(result.OutcomeChanges, change)
		}
	}

	result.VerdictChange = calculateVerdictChange(result.PreviousRun, result.CurrentRun)

	return result
}

// newRunMetadata extracts the comparison metadata from a report.
func newRunMetadata(report *model.Report) RunMetadata {
	return RunMetadata{
		Date:              report.DateScanned,
		Verdict:           report.Verdict,
		VerdictText:       report.VerdictText(),
		ProbesRun:         report.ProbesRun(),
		DetectedCount:     report.CountByOutcome(model.OutcomeDetected),
		NotDetectedCount:  report.CountByOutcome(model.OutcomeNotDetected),
		InconclusiveCount: report.CountByOutcome(model.OutcomeInconclusive),
	}
}

// calculateVerdictChange calculates the change in verdict between two runs.
// A verdict flip dominates; with an unchanged verdict the detected outcome
// count decides the direction.
func calculateVerdictChange(previous, current RunMetadata) VerdictChange {
	change := VerdictChange{
		DetectedDelta:     current.DetectedCount - previous.DetectedCount,
		NotDetectedDelta:  current.NotDetectedCount - previous.NotDetectedCount,
		InconclusiveDelta: current.InconclusiveCount - previous.InconclusiveCount,
	}

	switch {
	case current.Verdict && !previous.Verdict:
		change.Direction = verdictDirectionWorsened
	case !current.Verdict && previous.Verdict:
		change.Direction = verdictDirectionImproved
	case change.DetectedDelta > 0:
		change.Direction = verdictDirectionWorsened
	case change.DetectedDelta < 0:
		change.Direction = verdictDirectionImproved
	default:
		change.Direction = verdictDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "# Detection Comparison: %s\n\n", result.Hostname)

	// Verdict change summary
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "\n**Verdict Change:** %s\n\n", formatVerdictDirection(result.VerdictChange.Direction))

	// Run metadata table
	fmt.Fprintln(w, "| Metric | Previous | Current | Change |")
	fmt.Fprintln(w, "|--------|----------|---------|--------|")
	fmt.Fprintf(w, "| Date | %s | %s | - |\n",
		result.PreviousRun.Date.Format("2006-01-02 15:04"),
		result.CurrentRun.Date.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "| Verdict | %s | %s | - |\n",
		result.PreviousRun.VerdictText,
		result.CurrentRun.VerdictText)
	fmt.Fprintf(w, "| Detected | %d | %d | %s |\n",
		result.PreviousRun.DetectedCount,
		result.CurrentRun.DetectedCount,
		formatDelta(result.VerdictChange.DetectedDelta))
	fmt.Fprintf(w, "| Not Detected | %d | %d | %s |\n",
		result.PreviousRun.NotDetectedCount,
		result.CurrentRun.NotDetectedCount,
		formatDelta(result.VerdictChange.NotDetectedDelta))
	fmt.Fprintf(w, "| Inconclusive | %d | %d | %s |\n",
		result.PreviousRun.InconclusiveCount,
		result.CurrentRun.InconclusiveCount,
		formatDelta(result.VerdictChange.InconclusiveDelta))
	fmt.Fprintf(w, "| **Total** | **%d** | **%d** | **%s** |\n",
		result.PreviousRun.ProbesRun,
		result.CurrentRun.ProbesRun,
		formatDelta(result.CurrentRun.ProbesRun-result.PreviousRun.ProbesRun))

	// New detections
	if len(result.NewDetections) > 0 {
		fmt.Fprintf(w, "\n## New Detections (%d)\n\n", len(result.NewDetections))
		for _, c := range result.NewDetections {
			fmt.Fprintf(w, "- **%s**: %s\n", c.ProbeID, c.CurrentEvidence)
			if c.PreviousOutcome != outcomeNotRun {
				fmt.Fprintf(w, "  - Previously: %s\n", c.PreviousOutcome)
			}
		}
	}

	// Resolved detections
	if len(result.ResolvedDetections) > 0 {
		fmt.Fprintf(w, "\n## Resolved Detections (%d)\n\n", len(result.ResolvedDetections))
		for _, c := range result.ResolvedDetections {
			fmt.Fprintf(w, "- ~~**%s**: %s~~\n", c.ProbeID, c.PreviousEvidence)
		}
	}

	// Other outcome changes
	if len(result.OutcomeChanges) > 0 {
		fmt.Fprintf(w, "\n## Outcome Changes (%d)\n\n", len(result.OutcomeChanges))
		for _, c := range result.OutcomeChanges {
			fmt.Fprintf(w, "- **%s**: %s\n", c.ProbeID, formatProbeChange(c))
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\n---\n\n*%d probes unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable
// text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "Detection Comparison: %s\n", result.Hostname)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	// Verdict change summary
	fmt.Fprintf(w, "\nVerdict Change: %s\n", formatVerdictDirection(result.VerdictChange.Direction))

	// Run dates and verdicts
	fmt.Fprintf(w, "\nPrevious run: %s (%s)\n",
		result.PreviousRun.Date.Format("2006-01-02 15:04:05"),
		result.PreviousRun.VerdictText)
	fmt.Fprintf(w, "Current run:  %s (%s)\n",
		result.CurrentRun.Date.Format("2006-01-02 15:04:05"),
		result.CurrentRun.VerdictText)

	// Summary table
	fmt.Fprintln(w, "\nOutcome Summary:")
	fmt.Fprintf(w, "  %-13s  %-10s  %-10s  %-10s\n", "Outcome", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 48))
	fmt.Fprintf(w, "  %-13s  %-10d  %-10d  %-10s\n", "Detected",
		result.PreviousRun.DetectedCount, result.CurrentRun.DetectedCount,
		formatDelta(result.VerdictChange.DetectedDelta))
	fmt.Fprintf(w, "  %-13s  %-10d  %-10d  %-10s\n", "Not Detected",
		result.PreviousRun.NotDetectedCount, result.CurrentRun.NotDetectedCount,
		formatDelta(result.VerdictChange.NotDetectedDelta))
	fmt.Fprintf(w, "  %-13s  %-10d  %-10d  %-10s\n", "Inconclusive",
		result.PreviousRun.InconclusiveCount, result.CurrentRun.InconclusiveCount,
		formatDelta(result.VerdictChange.InconclusiveDelta))
	fmt.Fprintln(w, "  "+strings.Repeat("-", 48))
	fmt.Fprintf(w, "  %-13s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousRun.ProbesRun, result.CurrentRun.ProbesRun,
		formatDelta(result.CurrentRun.ProbesRun-result.PreviousRun.ProbesRun))

	// New detections
	if len(result.NewDetections) > 0 {
		fmt.Fprintf(w, "\nNew Detections (%d):\n", len(result.NewDetections))
		for _, c := range result.NewDetections {
			fmt.Fprintf(w, "  [+] %s: %s\n", c.ProbeID, c.CurrentEvidence)
		}
	}

	// Resolved detections
	if len(result.ResolvedDetections) > 0 {
		fmt.Fprintf(w, "\nResolved Detections (%d):\n", len(result.ResolvedDetections))
		for _, c := range result.ResolvedDetections {
			fmt.Fprintf(w, "  [-] %s: was %s\n", c.ProbeID, c.PreviousEvidence)
		}
	}

	// Other outcome changes
	if len(result.OutcomeChanges) > 0 {
		fmt.Fprintf(w, "\nOutcome Changes (%d):\n", len(result.OutcomeChanges))
		for _, c := range result.OutcomeChanges {
			fmt.Fprintf(w, "  [~] %s: %s\n", c.ProbeID, formatProbeChange(c))
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d probes\n", result.UnchangedCount)
	}

	return nil
}

// formatProbeChange renders one probe change as a single line. An evidence
// change with an unchanged outcome shows the evidence instead of the
// identical outcome pair.
func formatProbeChange(c ProbeChange) string {
	if c.PreviousOutcome == c.CurrentOutcome {
		return fmt.Sprintf("evidence changed (%q -> %q)", c.PreviousEvidence, c.CurrentEvidence)
	}
	return fmt.Sprintf("%s -> %s", c.PreviousOutcome, c.CurrentOutcome)
}

// formatVerdictDirection formats the verdict change direction for display.
func formatVerdictDirection(direction string) string {
	switch direction {
	case verdictDirectionImproved:
		return "IMPROVED (fewer detections)"
	case verdictDirectionWorsened:
		return "WORSENED (more detections)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
