package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/vmdetect/internal/model"
)

// createTestReport creates a report with one result per outcome for testing.
func createTestReport() *model.Report {
	report := model.NewReport("testhost", model.PlatformLinux)

	detected := model.Detected("hardware", `DMI product name "VMware Virtual Platform" matches denylist entry "vmware"`)
	detected.Cost = 2 * time.Millisecond
	report.AddResult(detected)

	clean := model.NotDetected("macaddr")
	clean.Cost = 500 * time.Microsecond
	report.AddResult(clean)

	report.AddResult(model.NotDetected("driver"))
	report.AddResult(model.Inconclusive("timing", "monotonic clock unavailable"))

	report.Verdict = true
	report.Elapsed = 42 * time.Millisecond
	report.Summary = model.NewSummary(report)

	return report
}

// createCleanReport creates a report where nothing was detected.
func createCleanReport() *model.Report {
	report := model.NewReport("cleanhost", model.PlatformLinux)
	report.AddResult(model.NotDetected("hardware"))
	report.AddResult(model.NotDetected("macaddr"))
	report.Elapsed = 10 * time.Millisecond
	report.Summary = model.NewSummary(report)
	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("leads with the verdict banner", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.HasPrefix(buf.String(), "vmdetect: Detected\n") {
			t.Errorf("expected output to start with the verdict banner, got %q", firstLine(buf.String()))
		}
	})

	t.Run("writes run metadata", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "DETECTION REPORT") {
			t.Error("expected output to contain the report header")
		}
		if !strings.Contains(output, "testhost") {
			t.Error("expected output to contain the hostname")
		}
		if !strings.Contains(output, "Linux") {
			t.Error("expected output to contain the title-cased platform")
		}
	})

	t.Run("writes outcome summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "OUTCOME SUMMARY") {
			t.Error("expected output to contain the outcome summary")
		}
		if !strings.Contains(output, "INCONCLUSIVE: 1") {
			t.Error("expected output to contain the inconclusive count")
		}
	})

	t.Run("writes detections with evidence", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Hardware Model Identity") {
			t.Error("expected output to contain the probe title")
		}
		if !strings.Contains(output, "VMware Virtual Platform") {
			t.Error("expected output to contain the evidence")
		}
	})

	t.Run("writes inconclusive reasons", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Instruction Timing Skew") {
			t.Error("expected output to contain the inconclusive probe title")
		}
		if !strings.Contains(output, "monotonic clock unavailable") {
			t.Error("expected output to contain the reason")
		}
	})

	t.Run("verbose mode lists every probe", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "PROBE RESULTS") {
			t.Error("expected verbose output to contain the probe result listing")
		}
		if !strings.Contains(output, "macaddr") {
			t.Error("expected verbose output to list clean probes")
		}
		if !strings.Contains(output, "Description:") {
			t.Error("expected verbose output to contain probe descriptions")
		}
	})

	t.Run("clean report hides empty sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createCleanReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.HasPrefix(output, "vmdetect: Not Detected\n") {
			t.Errorf("expected the clean banner, got %q", firstLine(output))
		}
		if strings.Contains(output, "DETECTIONS") {
			t.Error("expected no detections section on a clean report")
		}
	})

	t.Run("show clean renders empty sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowClean(true))

		_, err := w.Write(createCleanReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No detections") {
			t.Error("expected the empty detections placeholder")
		}
		if !strings.Contains(output, "No inconclusive probes") {
			t.Error("expected the empty inconclusive placeholder")
		}
	})

	t.Run("writes warnings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		report := model.NewReport("testhost", model.PlatformLinux)
		report.AddWarning(model.NoProbesWarning)
		report.Summary = model.NewSummary(report)

		_, err := w.Write(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "WARNINGS") {
			t.Error("expected output to contain the warnings section")
		}
		if !strings.Contains(output, model.NoProbesWarning) {
			t.Error("expected output to contain the warning text")
		}
	})

	t.Run("summary output omits elapsed time", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		report := createTestReport()
		_, err := w.WriteSummary(report.Summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.HasPrefix(output, "vmdetect: Detected\n") {
			t.Error("expected the summary to lead with the verdict banner")
		}
		if strings.Contains(output, "Elapsed:") {
			t.Error("summary output should not contain elapsed time")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.Report
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Hostname != "testhost" {
			t.Errorf("expected hostname %q, got %q", "testhost", parsed.Hostname)
		}
		if !parsed.Verdict {
			t.Error("expected a positive verdict")
		}
		if len(parsed.Results) != 4 {
			t.Errorf("expected 4 results, got %d", len(parsed.Results))
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) <= 1 {
			t.Error("expected indented output on multiple lines")
		}
		if !strings.Contains(output, `"hostname": "testhost"`) {
			t.Error("expected indented key-value formatting")
		}
	})

	t.Run("summary output unmarshals into Summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		report := createTestReport()
		_, err := w.WriteSummary(report.Summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.Summary
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if parsed.VerdictText != "Detected" {
			t.Errorf("expected verdict text Detected, got %q", parsed.VerdictText)
		}
		if parsed.DetectedCount != 1 {
			t.Errorf("expected 1 detection, got %d", parsed.DetectedCount)
		}
	})

	t.Run("full writer wraps report with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "v1.2.3")

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var wrapped JSONReport
		if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if wrapped.Version != "v1.2.3" {
			t.Errorf("expected version v1.2.3, got %q", wrapped.Version)
		}
		if wrapped.Report == nil || wrapped.Report.Hostname != "testhost" {
			t.Error("expected the wrapped report to carry the run data")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and verdict", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# vmdetect Report") {
			t.Error("expected output to contain the H1 title")
		}
		if !strings.Contains(output, "🚨 Detected") {
			t.Error("expected output to contain the verdict indicator")
		}
	})

	t.Run("writes outcome table and pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Outcome Summary") {
			t.Error("expected output to contain the outcome summary section")
		}
		if !strings.Contains(output, "```mermaid") {
			t.Error("expected output to contain the mermaid pie chart")
		}
	})

	t.Run("detected report uses caution alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "[!CAUTION]") {
			t.Error("expected a caution alert for a detected report")
		}
	})

	t.Run("clean report uses tip alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createCleanReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "✅ Not Detected") {
			t.Error("expected the clean verdict indicator")
		}
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected a tip alert for a clean report")
		}
	})

	t.Run("writes detections table with probe details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Detections") {
			t.Error("expected output to contain the detections section")
		}
		if !strings.Contains(output, "`hardware`") {
			t.Error("expected output to contain the probe ID")
		}
		if !strings.Contains(output, "<details>") {
			t.Error("expected output to contain probe description details")
		}
	})

	t.Run("writes full probe result table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Probe Results") {
			t.Error("expected output to contain the probe result table")
		}
		if !strings.Contains(output, "`driver`") {
			t.Error("expected the table to list clean probes")
		}
	})

	t.Run("summary output omits the probe result table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		report := createTestReport()
		_, err := w.WriteSummary(report.Summary)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "## Probe Results") {
			t.Error("summary output should not contain the probe result table")
		}
	})
}

// TestMultiWriter tests writing to multiple destinations.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

		total, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if buf1.Len() == 0 || buf2.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
		if total != buf1.Len()+buf2.Len() {
			t.Errorf("expected total %d, got %d", buf1.Len()+buf2.Len(), total)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(failingWriter{}), NewSimpleWriter(&buf))

		_, err := mw.Write(createTestReport())
		if err == nil {
			t.Fatal("expected an error from the failing writer")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped after an error")
		}
	})
}

// failingWriter is an io.Writer that always fails.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

// firstLine returns the first line of s for error messages.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
