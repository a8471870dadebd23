package model

import "testing"

// TestOutcomeString tests the String method of Outcome.
func TestOutcomeString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomeInconclusive, "INCONCLUSIVE"},
		{OutcomeNotDetected, "NOT_DETECTED"},
		{OutcomeDetected, "DETECTED"},
		{Outcome(999), "UNKNOWN"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.outcome.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.outcome.String(), tc.expected)
			}
		})
	}
}

// TestOutcomeZeroValue tests that the zero value reads as inconclusive.
// A result that was never filled in must not count as a clean check.
func TestOutcomeZeroValue(t *testing.T) {
	t.Parallel()

	var outcome Outcome
	if outcome != OutcomeInconclusive {
		t.Errorf("zero value = %v, expected OutcomeInconclusive", outcome)
	}
}

// TestParseOutcome tests the ParseOutcome function.
func TestParseOutcome(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Outcome
	}{
		{"DETECTED", OutcomeDetected},
		{"detected", OutcomeDetected},
		{"NOT_DETECTED", OutcomeNotDetected},
		{"not_detected", OutcomeNotDetected},
		{"INCONCLUSIVE", OutcomeInconclusive},
		{"", OutcomeInconclusive},
		{"bogus", OutcomeInconclusive},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			result := ParseOutcome(tc.input)
			if result != tc.expected {
				t.Errorf("ParseOutcome(%q) = %v, expected %v", tc.input, result, tc.expected)
			}
		})
	}
}

// TestGetProbeInfo tests the GetProbeInfo function.
func TestGetProbeInfo(t *testing.T) {
	t.Parallel()

	t.Run("returns correct info for known probe", func(t *testing.T) {
		t.Parallel()

		info := GetProbeInfo("macaddr")

		if info.Category != CategoryVirtualization {
			t.Errorf("expected CategoryVirtualization, got %q", info.Category)
		}
		if info.Title == "" {
			t.Error("expected non-empty Title")
		}
		if info.Description == "" {
			t.Error("expected non-empty Description")
		}
	})

	t.Run("returns fallback info for unknown probe", func(t *testing.T) {
		t.Parallel()

		info := GetProbeInfo("completely_unknown_probe")

		if info.Title != "completely_unknown_probe" {
			t.Errorf("expected probe id as fallback title, got %q", info.Title)
		}
		if info.Description == "" {
			t.Error("expected non-empty fallback Description")
		}
	})

	t.Run("categorizes probes correctly", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			probeID  string
			expected string
		}{
			{"hardware", CategoryVirtualization},
			{"driver", CategoryVirtualization},
			{"macaddr", CategoryVirtualization},
			{"artifact", CategoryVirtualization},
			{"cpuflag", CategoryVirtualization},
			{"process", CategorySandbox},
			{"sandbox", CategorySandbox},
			{"debugger", CategoryDebugging},
			{"timing", CategoryDebugging},
		}

		for _, tc := range testCases {
			info := GetProbeInfo(tc.probeID)
			if info.Category != tc.expected {
				t.Errorf("GetProbeInfo(%q).Category = %q, expected %q",
					tc.probeID, info.Category, tc.expected)
			}
		}
	})
}

// TestProbeInfoMappingCompleteness tests that every built-in probe has proper info.
func TestProbeInfoMappingCompleteness(t *testing.T) {
	t.Parallel()

	probeIDs := []string{
		"artifact", "cpuflag", "debugger", "driver", "hardware",
		"macaddr", "process", "sandbox", "timing",
	}

	for _, probeID := range probeIDs {
		t.Run(probeID, func(t *testing.T) {
			t.Parallel()

			info := GetProbeInfo(probeID)

			if info.Title == "" || info.Title == probeID {
				t.Errorf("probe %q has no display title", probeID)
			}
			if info.Description == "" {
				t.Errorf("probe %q has empty Description", probeID)
			}
			if info.Description == "No description registered for this probe." {
				t.Errorf("probe %q returned fallback Description", probeID)
			}
		})
	}
}
