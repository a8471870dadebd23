package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/vmdetect/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with a leading verdict
// banner and clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showClean controls whether sections with no signals are shown.
	showClean bool

	// verbose enables the per-probe result listing and probe descriptions.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowClean configures the writer to show empty signal sections.
func WithShowClean(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showClean = show
	}
}

// WithVerbose enables verbose output with per-probe results and descriptions.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showClean:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
// It generates a Summary from the Report if not already present.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	summary := report.Summary
	if summary == nil {
		summary = model.NewSummary(report)
	}

	var sb strings.Builder

	w.writeBanner(&sb, summary)
	w.writeHeader(&sb, summary, report.Elapsed.String())
	w.writeOutcomeCounts(&sb, summary)
	w.writeDetections(&sb, summary)
	w.writeUncertainties(&sb, summary)
	if w.verbose {
		w.writeProbeResults(&sb, report)
	}
	w.writeWarnings(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs the summary in human-readable format.
// Per-probe results are not available at this level, so only the
// headline sections are written.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, summary)
	w.writeHeader(&sb, summary, "")
	w.writeOutcomeCounts(&sb, summary)
	w.writeDetections(&sb, summary)
	w.writeUncertainties(&sb, summary)
	w.writeWarnings(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeBanner writes the leading verdict line. This line comes first so
// that `head -1` on the output always yields the verdict.
func (w *SimpleWriter) writeBanner(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(fmt.Sprintf("vmdetect: %s\n", summary.VerdictText))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary, elapsed string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         DETECTION REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Host:       %s\n", summary.Hostname))
	sb.WriteString(fmt.Sprintf("Platform:   %s\n", titleCase(string(summary.Platform))))
	sb.WriteString(fmt.Sprintf("Scan Date:  %s\n", summary.DateScanned.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Probes Run: %d\n", summary.ProbesRun))
	if elapsed != "" {
		sb.WriteString(fmt.Sprintf("Elapsed:    %s\n", elapsed))
	}

	sb.WriteString("\n")
}

// writeOutcomeCounts writes the outcome summary section.
func (w *SimpleWriter) writeOutcomeCounts(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OUTCOME SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  DETECTED:     %d\n", summary.DetectedCount))
	sb.WriteString(fmt.Sprintf("  NOT DETECTED: %d\n", summary.NotDetectedCount))
	sb.WriteString(fmt.Sprintf("  INCONCLUSIVE: %d\n", summary.InconclusiveCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:        %d probes\n", summary.ProbesRun))
	sb.WriteString("\n")
}

// writeDetections writes the probes that fired, with their evidence.
func (w *SimpleWriter) writeDetections(sb *strings.Builder, summary *model.Summary) {
	if !summary.HasDetections() && !w.showClean {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DETECTIONS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if !summary.HasDetections() {
		sb.WriteString("  No detections\n")
	} else {
		for _, signal := range summary.Detections {
			sb.WriteString(fmt.Sprintf("  [!] %s (%s)\n", signal.Title, signal.ProbeID))
			sb.WriteString(fmt.Sprintf("      Evidence: %s\n", signal.Evidence))
			if w.verbose {
				info := model.GetProbeInfo(signal.ProbeID)
				sb.WriteString(fmt.Sprintf("      Description: %s\n", info.Description))
			}
		}
	}
	sb.WriteString("\n")
}

// writeUncertainties writes the probes that could not decide.
func (w *SimpleWriter) writeUncertainties(sb *strings.Builder, summary *model.Summary) {
	if !summary.HasUncertainties() && !w.showClean {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("INCONCLUSIVE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if !summary.HasUncertainties() {
		sb.WriteString("  No inconclusive probes\n")
	} else {
		for _, signal := range summary.Uncertainties {
			sb.WriteString(fmt.Sprintf("  [?] %s (%s)\n", signal.Title, signal.ProbeID))
			sb.WriteString(fmt.Sprintf("      Reason: %s\n", signal.Evidence))
		}
	}
	sb.WriteString("\n")
}

// writeProbeResults writes every probe result with outcome and cost.
func (w *SimpleWriter) writeProbeResults(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROBE RESULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, result := range report.Results {
		indicator := w.getOutcomeIndicator(result.Outcome)
		sb.WriteString(fmt.Sprintf("  [%s] %-10s %-13s %s\n",
			indicator, result.ProbeID, result.OutcomeText, result.Cost))
	}
	sb.WriteString("\n")
}

// getOutcomeIndicator returns a visual indicator for the outcome.
func (w *SimpleWriter) getOutcomeIndicator(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeDetected:
		return "!"
	case model.OutcomeNotDetected:
		return "-"
	case model.OutcomeInconclusive:
		return "?"
	default:
		return " "
	}
}

// writeWarnings writes run-level warnings.
func (w *SimpleWriter) writeWarnings(sb *strings.Builder, summary *model.Summary) {
	if len(summary.Warnings) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("WARNINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, warning := range summary.Warnings {
		sb.WriteString(fmt.Sprintf("  * %s\n", warning))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by vmdetect\n")
	sb.WriteString("https://github.com/nao1215/vmdetect\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// titleCase converts an identifier like "linux" to display form "Linux".
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
