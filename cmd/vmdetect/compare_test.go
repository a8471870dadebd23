package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/vmdetect/internal/database"
	"github.com/nao1215/vmdetect/internal/model"
)

// TestNewCompareCmd tests the compare command creation.
func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "compare [host]" {
			t.Errorf("expected use 'compare [host]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has ids flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("ids")
		if flag == nil {
			t.Fatal("expected ids flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has since flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("since")
		if flag == nil {
			t.Fatal("expected since flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})
}

// TestResolveHost tests host resolution from positional arguments.
func TestResolveHost(t *testing.T) {
	t.Parallel()

	t.Run("uses positional argument", func(t *testing.T) {
		t.Parallel()
		host, err := resolveHost([]string{"buildbox-03"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if host != "buildbox-03" {
			t.Errorf("expected 'buildbox-03', got %q", host)
		}
	})

	t.Run("defaults to local hostname", func(t *testing.T) {
		t.Parallel()
		want, err := os.Hostname()
		if err != nil {
			t.Skipf("hostname unavailable: %v", err)
		}

		host, err := resolveHost(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if host != want {
			t.Errorf("expected %q, got %q", want, host)
		}
	})
}

// buildRunReport creates a report with the given results for comparison
// tests. The verdict follows from the results the way the engine sets it.
func buildRunReport(hostname string, age time.Duration, results ...model.ProbeResult) *model.Report {
	report := model.NewReport(hostname, model.PlatformLinux)
	report.DateScanned = time.Now().Add(-age)
	for _, result := range results {
		report.AddResult(result)
		if result.Outcome == model.OutcomeDetected {
			report.Verdict = true
		}
	}
	return report
}

// TestCompareReports tests report comparison.
func TestCompareReports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		previousResults   []model.ProbeResult
		currentResults    []model.ProbeResult
		wantNewCount      int
		wantResolvedCount int
		wantChangedCount  int
		wantUnchanged     int
		wantDirection     string
	}{
		{
			name: "no changes when results are identical",
			previousResults: []model.ProbeResult{
				model.NotDetected("macaddr"),
				model.NotDetected("hardware"),
			},
			currentResults: []model.ProbeResult{
				model.NotDetected("macaddr"),
				model.NotDetected("hardware"),
			},
			wantUnchanged: 2,
			wantDirection: "unchanged",
		},
		{
			name: "detects new detection",
			previousResults: []model.ProbeResult{
				model.NotDetected("hardware"),
			},
			currentResults: []model.ProbeResult{
				model.Detected("hardware", `DMI product name "VirtualBox"`),
			},
			wantNewCount:  1,
			wantDirection: "worsened",
		},
		{
			name: "detects resolved detection",
			previousResults: []model.ProbeResult{
				model.Detected("macaddr", "interface eth0 matches VMware prefix"),
			},
			currentResults: []model.ProbeResult{
				model.NotDetected("macaddr"),
			},
			wantResolvedCount: 1,
			wantDirection:     "improved",
		},
		{
			name: "records outcome flip without detection",
			previousResults: []model.ProbeResult{
				model.Inconclusive("timing", "monotonic clock unavailable"),
			},
			currentResults: []model.ProbeResult{
				model.NotDetected("timing"),
			},
			wantChangedCount: 1,
			wantDirection:    "unchanged",
		},
		{
			name: "records evidence change of a persisting detection",
			previousResults: []model.ProbeResult{
				model.Detected("process", "VBoxService.exe running"),
			},
			currentResults: []model.ProbeResult{
				model.Detected("process", "vmtoolsd running"),
			},
			wantChangedCount: 1,
			wantDirection:    "unchanged",
		},
		{
			name: "clean probe missing from current run",
			previousResults: []model.ProbeResult{
				model.NotDetected("cpuflag"),
				model.NotDetected("macaddr"),
			},
			currentResults: []model.ProbeResult{
				model.NotDetected("macaddr"),
			},
			wantChangedCount: 1,
			wantUnchanged:    1,
			wantDirection:    "unchanged",
		},
		{
			name: "detection missing from current run counts as resolved",
			previousResults: []model.ProbeResult{
				model.Detected("debugger", "IsDebuggerPresent returned true"),
			},
			currentResults:    []model.ProbeResult{},
			wantResolvedCount: 1,
			wantDirection:     "improved",
		},
		{
			name: "handles mixed changes",
			previousResults: []model.ProbeResult{
				model.NotDetected("macaddr"),
				model.Detected("hardware", `DMI vendor "QEMU"`),
				model.Inconclusive("timing", "clock skew"),
			},
			currentResults: []model.ProbeResult{
				model.NotDetected("macaddr"),
				model.NotDetected("hardware"),
				model.Detected("timing", "loop took 900ms, expected under 500ms"),
			},
			wantNewCount:      1,
			wantResolvedCount: 1,
			wantUnchanged:     1,
			wantDirection:     "unchanged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			previous := buildRunReport("testhost", 24*time.Hour, tt.previousResults...)
			current := buildRunReport("testhost", 0, tt.currentResults...)

			result := compareReports(previous, current)

			if len(result.NewDetections) != tt.wantNewCount {
				t.Errorf("NewDetections count: got %d, want %d", len(result.NewDetections), tt.wantNewCount)
			}
			if len(result.ResolvedDetections) != tt.wantResolvedCount {
				t.Errorf("ResolvedDetections count: got %d, want %d", len(result.ResolvedDetections), tt.wantResolvedCount)
			}
			if len(result.OutcomeChanges) != tt.wantChangedCount {
				t.Errorf("OutcomeChanges count: got %d, want %d", len(result.OutcomeChanges), tt.wantChangedCount)
			}
			if result.UnchangedCount != tt.wantUnchanged {
				t.Errorf("UnchangedCount: got %d, want %d", result.UnchangedCount, tt.wantUnchanged)
			}
			if result.VerdictChange.Direction != tt.wantDirection {
				t.Errorf("VerdictChange.Direction: got %q, want %q", result.VerdictChange.Direction, tt.wantDirection)
			}
		})
	}
}

// TestCompareReportsMetadata tests that run metadata is extracted into the
// comparison result.
func TestCompareReportsMetadata(t *testing.T) {
	t.Parallel()

	previous := buildRunReport("testhost", 24*time.Hour,
		model.NotDetected("macaddr"),
		model.Inconclusive("timing", "clock skew"),
	)
	current := buildRunReport("testhost", 0,
		model.Detected("macaddr", "interface eth0 matches VirtualBox prefix"),
		model.NotDetected("timing"),
	)

	result := compareReports(previous, current)

	if result.Hostname != "testhost" {
		t.Errorf("expected hostname 'testhost', got %q", result.Hostname)
	}
	if result.PreviousRun.Verdict {
		t.Error("expected previous verdict to be false")
	}
	if !result.CurrentRun.Verdict {
		t.Error("expected current verdict to be true")
	}
	if result.PreviousRun.InconclusiveCount != 1 {
		t.Errorf("expected 1 inconclusive in previous run, got %d", result.PreviousRun.InconclusiveCount)
	}
	if result.CurrentRun.DetectedCount != 1 {
		t.Errorf("expected 1 detection in current run, got %d", result.CurrentRun.DetectedCount)
	}
	if !result.PreviousRun.Date.Before(result.CurrentRun.Date) {
		t.Error("expected previous run date before current run date")
	}
}

// TestCalculateVerdictChange tests verdict change calculation.
func TestCalculateVerdictChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		previous      RunMetadata
		current       RunMetadata
		wantDirection string
		wantDetected  int
	}{
		{
			name:          "verdict flip to detected is worsened",
			previous:      RunMetadata{Verdict: false, DetectedCount: 0},
			current:       RunMetadata{Verdict: true, DetectedCount: 1},
			wantDirection: "worsened",
			wantDetected:  1,
		},
		{
			name:          "verdict flip to clean is improved",
			previous:      RunMetadata{Verdict: true, DetectedCount: 2},
			current:       RunMetadata{Verdict: false, DetectedCount: 0},
			wantDirection: "improved",
			wantDetected:  -2,
		},
		{
			name:          "more detections with same verdict is worsened",
			previous:      RunMetadata{Verdict: true, DetectedCount: 1},
			current:       RunMetadata{Verdict: true, DetectedCount: 3},
			wantDirection: "worsened",
			wantDetected:  2,
		},
		{
			name:          "fewer detections with same verdict is improved",
			previous:      RunMetadata{Verdict: true, DetectedCount: 3},
			current:       RunMetadata{Verdict: true, DetectedCount: 1},
			wantDirection: "improved",
			wantDetected:  -2,
		},
		{
			name:          "identical counts are unchanged",
			previous:      RunMetadata{Verdict: false, DetectedCount: 0, InconclusiveCount: 1},
			current:       RunMetadata{Verdict: false, DetectedCount: 0, InconclusiveCount: 1},
			wantDirection: "unchanged",
			wantDetected:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			change := calculateVerdictChange(tt.previous, tt.current)
			if change.Direction != tt.wantDirection {
				t.Errorf("Direction: got %q, want %q", change.Direction, tt.wantDirection)
			}
			if change.DetectedDelta != tt.wantDetected {
				t.Errorf("DetectedDelta: got %d, want %d", change.DetectedDelta, tt.wantDetected)
			}
		})
	}
}

// TestFormatDelta tests delta formatting.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{delta: 3, want: "+3"},
		{delta: -2, want: "-2"},
		{delta: 0, want: "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

// TestFormatVerdictDirection tests direction formatting.
func TestFormatVerdictDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		direction string
		want      string
	}{
		{direction: verdictDirectionImproved, want: "IMPROVED (fewer detections)"},
		{direction: verdictDirectionWorsened, want: "WORSENED (more detections)"},
		{direction: verdictDirectionUnchanged, want: "UNCHANGED"},
		{direction: "garbage", want: "UNCHANGED"},
	}

	for _, tt := range tests {
		if got := formatVerdictDirection(tt.direction); got != tt.want {
			t.Errorf("formatVerdictDirection(%q) = %q, want %q", tt.direction, got, tt.want)
		}
	}
}

// TestFormatProbeChange tests single-line probe change rendering.
func TestFormatProbeChange(t *testing.T) {
	t.Parallel()

	t.Run("shows outcome transition", func(t *testing.T) {
		t.Parallel()
		c := ProbeChange{
			ProbeID:         "timing",
			PreviousOutcome: "INCONCLUSIVE",
			CurrentOutcome:  "NOT_DETECTED",
		}
		got := formatProbeChange(c)
		if got != "INCONCLUSIVE -> NOT_DETECTED" {
			t.Errorf("unexpected rendering: %q", got)
		}
	})

	t.Run("shows evidence change when outcome is unchanged", func(t *testing.T) {
		t.Parallel()
		c := ProbeChange{
			ProbeID:          "process",
			PreviousOutcome:  "DETECTED",
			CurrentOutcome:   "DETECTED",
			PreviousEvidence: "VBoxService.exe running",
			CurrentEvidence:  "vmtoolsd running",
		}
		got := formatProbeChange(c)
		if !strings.Contains(got, "evidence changed") {
			t.Errorf("expected evidence change rendering, got %q", got)
		}
	})
}

// comparisonFixture builds a comparison result with one change of each
// kind for output tests.
func comparisonFixture() *ComparisonResult {
	previous := buildRunReport("testhost", 24*time.Hour,
		model.NotDetected("hardware"),
		model.Detected("macaddr", "interface eth0 matches VMware prefix"),
		model.Inconclusive("timing", "clock skew"),
		model.NotDetected("process"),
	)
	current := buildRunReport("testhost", 0,
		model.Detected("hardware", `DMI product name "VirtualBox"`),
		model.NotDetected("macaddr"),
		model.NotDetected("timing"),
		model.NotDetected("process"),
	)
	return compareReports(previous, current)
}

// TestOutputComparisonText tests the text renderer.
func TestOutputComparisonText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := outputComparisonText(&buf, comparisonFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Detection Comparison: testhost") {
		t.Errorf("expected header with hostname, got: %s", output)
	}
	if !strings.Contains(output, "Verdict Change:") {
		t.Errorf("expected verdict change line, got: %s", output)
	}
	if !strings.Contains(output, "New Detections (1):") {
		t.Errorf("expected new detections section, got: %s", output)
	}
	if !strings.Contains(output, "[+] hardware:") {
		t.Errorf("expected new detection entry, got: %s", output)
	}
	if !strings.Contains(output, "Resolved Detections (1):") {
		t.Errorf("expected resolved detections section, got: %s", output)
	}
	if !strings.Contains(output, "[-] macaddr: was interface eth0 matches VMware prefix") {
		t.Errorf("expected resolved detection entry, got: %s", output)
	}
	if !strings.Contains(output, "Outcome Changes (1):") {
		t.Errorf("expected outcome changes section, got: %s", output)
	}
	if !strings.Contains(output, "Unchanged: 1 probes") {
		t.Errorf("expected unchanged count, got: %s", output)
	}
}

// TestOutputComparisonJSON tests the JSON renderer.
func TestOutputComparisonJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := outputComparisonJSON(&buf, comparisonFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded ComparisonResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON, got error: %v", err)
	}
	if decoded.Hostname != "testhost" {
		t.Errorf("expected hostname 'testhost', got %q", decoded.Hostname)
	}
	if len(decoded.NewDetections) != 1 {
		t.Errorf("expected 1 new detection, got %d", len(decoded.NewDetections))
	}
	if decoded.VerdictChange.Direction == "" {
		t.Error("expected verdict change direction")
	}
}

// TestOutputComparisonMarkdown tests the Markdown renderer.
func TestOutputComparisonMarkdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := outputComparisonMarkdown(&buf, comparisonFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "# Detection Comparison: testhost") {
		t.Errorf("expected Markdown title, got: %s", output)
	}
	if !strings.Contains(output, "**Verdict Change:**") {
		t.Errorf("expected verdict change line, got: %s", output)
	}
	if !strings.Contains(output, "| Detected | 1 | 1 | 0 |") {
		t.Errorf("expected detected row, got: %s", output)
	}
	if !strings.Contains(output, "## New Detections (1)") {
		t.Errorf("expected new detections section, got: %s", output)
	}
	if !strings.Contains(output, "~~**macaddr**") {
		t.Errorf("expected strikethrough resolved detection, got: %s", output)
	}
	if !strings.Contains(output, "*1 probes unchanged*") {
		t.Errorf("expected unchanged footer, got: %s", output)
	}
}

// TestReportPairByID tests explicit report pair selection.
func TestReportPairByID(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	db, err := database.Open(tmpDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	older := buildRunReport("pairhost", 48*time.Hour, model.NotDetected("macaddr"))
	newer := buildRunReport("pairhost", 0, model.Detected("macaddr", "interface eth0 matches VirtualBox prefix"))
	otherHost := buildRunReport("otherhost", 0, model.NotDetected("macaddr"))

	olderID, err := db.SaveReport(ctx, older)
	if err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	newerID, err := db.SaveReport(ctx, newer)
	if err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	otherID, err := db.SaveReport(ctx, otherHost)
	if err != nil {
		t.Fatalf("failed to save report: %v", err)
	}

	t.Run("orders pair by run date", func(t *testing.T) {
		t.Parallel()

		// Reversed flag order still puts the older run first
		previous, current, err := reportPairByID(ctx, db, []int64{newerID, olderID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !previous.DateScanned.Before(current.DateScanned) {
			t.Error("expected previous run to be the older one")
		}
		if current.Results[0].Outcome != model.OutcomeDetected {
			t.Error("expected the newer run as current")
		}
	})

	t.Run("rejects wrong id count", func(t *testing.T) {
		t.Parallel()

		if _, _, err := reportPairByID(ctx, db, []int64{olderID}); err == nil {
			t.Error("expected error for a single ID")
		}
	})

	t.Run("rejects unknown id", func(t *testing.T) {
		t.Parallel()

		_, _, err := reportPairByID(ctx, db, []int64{olderID, 9999})
		if err == nil {
			t.Fatal("expected error for unknown ID")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got: %v", err)
		}
	})

	t.Run("rejects pair from different hosts", func(t *testing.T) {
		t.Parallel()

		_, _, err := reportPairByID(ctx, db, []int64{olderID, otherID})
		if err == nil {
			t.Fatal("expected error for mixed hosts")
		}
		if !strings.Contains(err.Error(), "different hosts") {
			t.Errorf("expected 'different hosts' error, got: %v", err)
		}
	})
}

// TestReportPairFromHistory tests history-based pair selection.
func TestReportPairFromHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("errors when no history exists", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		_, _, err = reportPairFromHistory(ctx, db, "emptyhost", "")
		if err == nil {
			t.Fatal("expected error for empty history")
		}
		if !strings.Contains(err.Error(), "no detection history") {
			t.Errorf("expected 'no detection history' error, got: %v", err)
		}
	})

	t.Run("errors with a single run", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		report := buildRunReport("lonelyhost", 0, model.NotDetected("macaddr"))
		if _, err := db.SaveReport(ctx, report); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}

		_, _, err = reportPairFromHistory(ctx, db, "lonelyhost", "")
		if err == nil {
			t.Fatal("expected error for single run")
		}
		if !strings.Contains(err.Error(), "at least 2 runs") {
			t.Errorf("expected 'at least 2 runs' error, got: %v", err)
		}
	})

	t.Run("compares latest two by default", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		oldest := buildRunReport("historyhost", 72*time.Hour, model.NotDetected("macaddr"))
		middle := buildRunReport("historyhost", 24*time.Hour, model.Inconclusive("macaddr", "no interfaces"))
		latest := buildRunReport("historyhost", 0, model.Detected("macaddr", "interface eth0 matches QEMU prefix"))
		for _, r := range []*model.Report{oldest, middle, latest} {
			if _, err := db.SaveReport(ctx, r); err != nil {
				t.Fatalf("failed to save report: %v", err)
			}
		}

		previous, current, err := reportPairFromHistory(ctx, db, "historyhost", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if current.Results[0].Outcome != model.OutcomeDetected {
			t.Error("expected latest run as current")
		}
		if previous.Results[0].Outcome != model.OutcomeInconclusive {
			t.Error("expected second most recent run as previous")
		}
	})

	t.Run("since selects oldest run after date", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		ancient := buildRunReport("sincehost", 30*24*time.Hour, model.NotDetected("macaddr"))
		recent := buildRunReport("sincehost", 24*time.Hour, model.Inconclusive("macaddr", "no interfaces"))
		latest := buildRunReport("sincehost", 0, model.Detected("macaddr", "interface eth0 matches QEMU prefix"))
		for _, r := range []*model.Report{ancient, recent, latest} {
			if _, err := db.SaveReport(ctx, r); err != nil {
				t.Fatalf("failed to save report: %v", err)
			}
		}

		// The cutoff excludes the ancient run, so the baseline is the
		// oldest run inside the window
		cutoff := time.Now().Add(-48 * time.Hour).Format("2006-01-02")
		previous, current, err := reportPairFromHistory(ctx, db, "sincehost", cutoff)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if previous.Results[0].Outcome != model.OutcomeInconclusive {
			t.Error("expected the oldest run inside the window as previous")
		}
		if current.Results[0].Outcome != model.OutcomeDetected {
			t.Error("expected latest run as current")
		}
	})

	t.Run("rejects invalid since format", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		for _, age := range []time.Duration{24 * time.Hour, 0} {
			report := buildRunReport("datehost", age, model.NotDetected("macaddr"))
			if _, err := db.SaveReport(ctx, report); err != nil {
				t.Fatalf("failed to save report: %v", err)
			}
		}

		_, _, err = reportPairFromHistory(ctx, db, "datehost", "01-02-2026")
		if err == nil {
			t.Fatal("expected error for invalid date format")
		}
		if !strings.Contains(err.Error(), "invalid date format") {
			t.Errorf("expected 'invalid date format' error, got: %v", err)
		}
	})
}

// TestRunComparisonIntegration tests the comparison pipeline against a
// real database.
func TestRunComparisonIntegration(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	db, err := database.Open(tmpDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	previous := buildRunReport("comparehost", 24*time.Hour,
		model.NotDetected("hardware"),
		model.NotDetected("macaddr"),
	)
	current := buildRunReport("comparehost", 0,
		model.Detected("hardware", `DMI product name "VirtualBox"`),
		model.NotDetected("macaddr"),
	)

	if _, err := db.SaveReport(ctx, previous); err != nil {
		t.Fatalf("failed to save previous report: %v", err)
	}
	if _, err := db.SaveReport(ctx, current); err != nil {
		t.Fatalf("failed to save current report: %v", err)
	}

	t.Run("renders text comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := runComparison(ctx, &buf, db, comparisonQuery{hostname: "comparehost"})
		if err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "comparehost") {
			t.Errorf("expected hostname in output, got: %s", output)
		}
		if !strings.Contains(output, "New Detections") {
			t.Errorf("expected 'New Detections' section, got: %s", output)
		}
		if !strings.Contains(output, "WORSENED") {
			t.Errorf("expected worsened verdict change, got: %s", output)
		}
	})

	t.Run("renders JSON comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := runComparison(ctx, &buf, db, comparisonQuery{hostname: "comparehost", jsonOutput: true})
		if err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}

		var decoded ComparisonResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("expected valid JSON, got error: %v", err)
		}
		if decoded.Hostname != "comparehost" {
			t.Errorf("expected hostname 'comparehost', got %q", decoded.Hostname)
		}
	})

	t.Run("renders Markdown comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := runComparison(ctx, &buf, db, comparisonQuery{hostname: "comparehost", markdownOutput: true})
		if err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}

		if !strings.Contains(buf.String(), "# Detection Comparison: comparehost") {
			t.Errorf("expected Markdown title, got: %s", buf.String())
		}
	})

	t.Run("rejects explicit host mismatch with ids", func(t *testing.T) {
		t.Parallel()

		// Both reports belong to comparehost
		metas, err := db.GetHistoryWithMetadata(ctx, "comparehost")
		if err != nil {
			t.Fatalf("failed to get metadata: %v", err)
		}
		if len(metas) < 2 {
			t.Fatalf("expected 2 stored reports, got %d", len(metas))
		}

		var buf bytes.Buffer
		err = runComparison(ctx, &buf, db, comparisonQuery{
			hostname:     "someotherbox",
			explicitHost: true,
			ids:          []int64{metas[0].ID, metas[1].ID},
		})
		if err == nil {
			t.Fatal("expected error for host mismatch")
		}
		if !strings.Contains(err.Error(), "belong to") {
			t.Errorf("expected host mismatch error, got: %v", err)
		}
	})
}
