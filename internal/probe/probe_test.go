package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/vmdetect/internal/model"
)

// stubProbe is a minimal Probe implementation for registry tests.
type stubProbe struct {
	id        string
	platforms []model.Platform
}

func (s *stubProbe) ID() string                  { return s.id }
func (s *stubProbe) Platforms() []model.Platform { return s.platforms }
func (s *stubProbe) Run(_ context.Context) (model.ProbeResult, error) {
	return model.NotDetected(s.id), nil
}

// TestNewRegistry tests built-in probe registration.
func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("registers every built-in probe", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		want := []string{
			ProbeIDArtifact,
			ProbeIDCPUFlag,
			ProbeIDDebugger,
			ProbeIDDriver,
			ProbeIDHardware,
			ProbeIDMACAddr,
			ProbeIDProcess,
			ProbeIDSandbox,
			ProbeIDTiming,
		}

		got := r.IDs()
		if len(got) != len(want) {
			t.Fatalf("expected %d probes, got %d: %v", len(want), len(got), got)
		}
		for i, id := range want {
			if got[i] != id {
				t.Errorf("probe %d: expected %q, got %q", i, id, got[i])
			}
		}
	})

	t.Run("All returns probes sorted by identifier", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		probes := r.All()
		if len(probes) != r.Len() {
			t.Fatalf("expected %d probes, got %d", r.Len(), len(probes))
		}
		for i := 1; i < len(probes); i++ {
			if probes[i-1].ID() >= probes[i].ID() {
				t.Errorf("probes not sorted: %q before %q", probes[i-1].ID(), probes[i].ID())
			}
		}
	})

	t.Run("timing options reach the timing probe", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(WithTimingThreshold(2*time.Second), WithTimingIterations(10))
		timing, ok := r.probes[ProbeIDTiming].(*TimingAntiDebugProbe)
		if !ok {
			t.Fatal("timing probe not registered")
		}
		if timing.threshold != 2*time.Second {
			t.Errorf("expected threshold 2s, got %s", timing.threshold)
		}
		if timing.iterations != 10 {
			t.Errorf("expected 10 iterations, got %d", timing.iterations)
		}
	})
}

// TestRegistryRegister tests duplicate detection.
func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate identifiers", func(t *testing.T) {
		t.Parallel()

		r := &Registry{probes: make(map[string]Probe)}
		if err := r.Register(&stubProbe{id: "stub"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err := r.Register(&stubProbe{id: "stub"})
		if !errors.Is(err, ErrDuplicateProbe) {
			t.Errorf("expected ErrDuplicateProbe, got %v", err)
		}
	})
}

// TestRegistryProbesFor tests platform filtering.
func TestRegistryProbesFor(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	tests := []struct {
		name     string
		platform model.Platform
		want     []string
	}{
		{
			name:     "windows",
			platform: model.PlatformWindows,
			want: []string{
				ProbeIDArtifact, ProbeIDDebugger, ProbeIDDriver, ProbeIDHardware,
				ProbeIDMACAddr, ProbeIDProcess, ProbeIDSandbox, ProbeIDTiming,
			},
		},
		{
			name:     "linux",
			platform: model.PlatformLinux,
			want: []string{
				ProbeIDArtifact, ProbeIDCPUFlag, ProbeIDDriver, ProbeIDHardware,
				ProbeIDMACAddr, ProbeIDProcess, ProbeIDTiming,
			},
		},
		{
			name:     "darwin",
			platform: model.PlatformDarwin,
			want:     []string{ProbeIDMACAddr, ProbeIDProcess, ProbeIDTiming},
		},
		{
			name:     "unknown platform has no applicable probes",
			platform: model.PlatformUnknown,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			probes := r.ProbesFor(tt.platform)
			if len(probes) != len(tt.want) {
				t.Fatalf("expected %d probes, got %d", len(tt.want), len(probes))
			}
			for i, id := range tt.want {
				if probes[i].ID() != id {
					t.Errorf("probe %d: expected %q, got %q", i, id, probes[i].ID())
				}
			}
		})
	}
}

// TestRegistrySelect tests subset selection.
func TestRegistrySelect(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	t.Run("returns requested probes sorted", func(t *testing.T) {
		t.Parallel()

		probes, err := r.Select(model.PlatformLinux, []string{ProbeIDTiming, ProbeIDHardware})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(probes) != 2 {
			t.Fatalf("expected 2 probes, got %d", len(probes))
		}
		if probes[0].ID() != ProbeIDHardware || probes[1].ID() != ProbeIDTiming {
			t.Errorf("expected [hardware timing], got [%s %s]", probes[0].ID(), probes[1].ID())
		}
	})

	t.Run("unknown identifier is an error", func(t *testing.T) {
		t.Parallel()

		_, err := r.Select(model.PlatformLinux, []string{"nosuchprobe"})
		if !errors.Is(err, ErrUnknownProbe) {
			t.Errorf("expected ErrUnknownProbe, got %v", err)
		}
	})

	t.Run("known but inapplicable probe is filtered silently", func(t *testing.T) {
		t.Parallel()

		probes, err := r.Select(model.PlatformLinux, []string{ProbeIDDebugger, ProbeIDTiming})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(probes) != 1 || probes[0].ID() != ProbeIDTiming {
			t.Errorf("expected only the timing probe, got %d probes", len(probes))
		}
	})

	t.Run("duplicate identifiers collapse", func(t *testing.T) {
		t.Parallel()

		probes, err := r.Select(model.PlatformLinux, []string{ProbeIDTiming, ProbeIDTiming})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(probes) != 1 {
			t.Errorf("expected 1 probe, got %d", len(probes))
		}
	})
}
