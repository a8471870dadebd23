package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/vmdetect/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	summary := report.Summary
	if summary == nil {
		summary = model.NewSummary(report)
	}

	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary, report.Elapsed.String())
	w.writeOutcomeSummary(md, summary)
	w.writeDetections(md, summary)
	w.writeUncertainties(md, summary)
	w.writeProbeResults(md, report)
	w.writeWarnings(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary in Markdown format.
// The per-probe result table is not available at this level.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary, "")
	w.writeOutcomeSummary(md, summary)
	w.writeDetections(md, summary)
	w.writeUncertainties(md, summary)
	w.writeWarnings(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary, elapsed string) {
	md.H1("vmdetect Report")
	md.PlainText("")

	rows := [][]string{
		{"Host", "`" + summary.Hostname + "`"},
		{"Platform", titleCase(string(summary.Platform))},
		{"Scan Date", summary.DateScanned.Format("2006-01-02 15:04:05 MST")},
		{"Probes Run", strconv.Itoa(summary.ProbesRun)},
	}
	if elapsed != "" {
		rows = append(rows, []string{"Elapsed", elapsed})
	}
	rows = append(rows, []string{"Verdict", w.getVerdictText(summary)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getVerdictText returns the verdict with a visual indicator.
func (w *MarkdownWriter) getVerdictText(summary *model.Summary) string {
	if summary.Verdict {
		return "🚨 Detected"
	}
	return "✅ Not Detected"
}

// writeOutcomeSummary writes the outcome summary section.
func (w *MarkdownWriter) writeOutcomeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Outcome Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🔴 Detected", strconv.Itoa(summary.DetectedCount)},
			{"🟢 Not Detected", strconv.Itoa(summary.NotDetectedCount)},
			{"🟡 Inconclusive", strconv.Itoa(summary.InconclusiveCount)},
			{"**Total**", "**" + strconv.Itoa(summary.ProbesRun) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if any probe ran
	if summary.ProbesRun > 0 {
		w.writePieChart(md, summary)
	}

	// Add alert based on the verdict
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Probe Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if summary.DetectedCount > 0 {
		chart.LabelAndIntValue("Detected", uint64(summary.DetectedCount))
	}
	if summary.NotDetectedCount > 0 {
		chart.LabelAndIntValue("Not Detected", uint64(summary.NotDetectedCount))
	}
	if summary.InconclusiveCount > 0 {
		chart.LabelAndIntValue("Inconclusive", uint64(summary.InconclusiveCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.ProbesRun == 0:
		md.Warning("No probes executed. The verdict defaults to Not Detected and should not be trusted.")
	case summary.DetectedCount > 0:
		md.Cautionf(
			"Virtualization, sandbox, or debugger artifacts detected! %d probe(s) fired.",
			summary.DetectedCount,
		)
	case summary.InconclusiveCount > 0:
		md.Importantf(
			"%d probe(s) could not decide. The clean verdict rests on the %d probe(s) that ran to completion.",
			summary.InconclusiveCount, summary.NotDetectedCount,
		)
	default:
		md.Tip("All probes ran and none found virtualization, sandbox, or debugger artifacts.")
	}
	md.PlainText("")
}

// writeDetections writes the probes that fired.
func (w *MarkdownWriter) writeDetections(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Detections")
	md.PlainText("")

	if !summary.HasDetections() {
		md.PlainText("No probe detected an artifact.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Detections))
	for i, signal := range summary.Detections {
		rows[i] = []string{
			signal.Title,
			"`" + signal.ProbeID + "`",
			titleCase(signal.Category),
			truncateString(signal.Evidence, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Probe", "ID", "Category", "Evidence"},
		Rows:   rows,
	})
	md.PlainText("")

	// Add probe descriptions for all detections
	for _, signal := range summary.Detections {
		info := model.GetProbeInfo(signal.ProbeID)
		if info.Description != "" {
			md.Details(signal.Title, info.Description)
		}
	}
	md.PlainText("")
}

// writeUncertainties writes the probes that could not decide.
func (w *MarkdownWriter) writeUncertainties(md *markdown.Markdown, summary *model.Summary) {
	if !summary.HasUncertainties() {
		return
	}

	md.H2("Inconclusive Probes")
	md.PlainText("")

	rows := make([][]string, len(summary.Uncertainties))
	for i, signal := range summary.Uncertainties {
		rows[i] = []string{
			signal.Title,
			"`" + signal.ProbeID + "`",
			truncateString(signal.Evidence, 70),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Probe", "ID", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeProbeResults writes the full per-probe result table.
func (w *MarkdownWriter) writeProbeResults(md *markdown.Markdown, report *model.Report) {
	if len(report.Results) == 0 {
		return
	}

	md.H2("Probe Results")
	md.PlainText("")

	rows := make([][]string, len(report.Results))
	for i, result := range report.Results {
		evidence := result.Evidence
		if evidence == "" {
			evidence = "-"
		}
		rows[i] = []string{
			"`" + result.ProbeID + "`",
			result.OutcomeText,
			result.Cost.String(),
			truncateString(evidence, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Probe", "Outcome", "Duration", "Evidence"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeWarnings writes run-level warnings.
func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, summary *model.Summary) {
	if len(summary.Warnings) == 0 {
		return
	}

	md.H2("Warnings")
	md.PlainText("")
	md.BulletList(summary.Warnings...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [vmdetect](https://github.com/nao1215/vmdetect)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
