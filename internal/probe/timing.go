package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/vmdetect/internal/model"
)

// Timing probe defaults. Both are tunable per run; the defaults assume an
// unloaded host where the loop finishes in well under the threshold.
const (
	// DefaultTimingIterations is the loop size of the timing probe.
	DefaultTimingIterations = 1_000_000
	// DefaultTimingThreshold is the elapsed time above which the loop is
	// considered slowed down by instrumentation.
	DefaultTimingThreshold = 500 * time.Millisecond
)

// timingSink keeps the measurement loop observable so the compiler cannot
// remove it.
var timingSink uint64

// TimingAntiDebugProbe measures how long a fixed CPU-bound loop takes.
// Single-step debugging, emulation, and heavily instrumented sandboxes
// stretch the wall-clock time of trivial work by orders of magnitude, so
// an elapsed time above the threshold marks an instrumented environment.
//
// The check is portable and needs no platform collector. Results depend on
// host load, which is why the runner schedules this probe without
// concurrent siblings.
type TimingAntiDebugProbe struct {
	// iterations is the size of the measurement loop.
	iterations int
	// threshold is the elapsed time that separates native execution from
	// instrumented execution.
	threshold time.Duration
	// now returns the current time. Swappable so tests can script the
	// clock instead of depending on host speed.
	now func() time.Time
}

// TimingOption configures a TimingAntiDebugProbe.
type TimingOption func(*TimingAntiDebugProbe)

// TimingThreshold sets the elapsed-time threshold.
func TimingThreshold(d time.Duration) TimingOption {
	return func(p *TimingAntiDebugProbe) {
		if d > 0 {
			p.threshold = d
		}
	}
}

// TimingIterations sets the measurement loop size.
func TimingIterations(n int) TimingOption {
	return func(p *TimingAntiDebugProbe) {
		if n > 0 {
			p.iterations = n
		}
	}
}

// NewTimingAntiDebugProbe creates a new TimingAntiDebugProbe with the
// default loop size and threshold.
func NewTimingAntiDebugProbe(opts ...TimingOption) *TimingAntiDebugProbe {
	p := &TimingAntiDebugProbe{
		iterations: DefaultTimingIterations,
		threshold:  DefaultTimingThreshold,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the probe identifier.
func (p *TimingAntiDebugProbe) ID() string {
	return ProbeIDTiming
}

// Platforms returns the platforms this probe supports.
func (p *TimingAntiDebugProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformWindows, model.PlatformLinux, model.PlatformDarwin}
}

// TimingSensitive marks this probe as one the runner must execute without
// concurrent siblings, since CPU contention would inflate the measurement.
func (p *TimingAntiDebugProbe) TimingSensitive() bool {
	return true
}

// Run times the measurement loop and compares the elapsed wall-clock time
// against the threshold.
func (p *TimingAntiDebugProbe) Run(_ context.Context) (model.ProbeResult, error) {
	start := p.now()
	var acc uint64
	for i := 0; i < p.iterations; i++ {
		acc = acc*31 + uint64(i)
	}
	timingSink = acc
	elapsed := p.now().Sub(start)

	if elapsed > p.threshold {
		evidence := fmt.Sprintf("loop of %d iterations took %s, above the %s threshold",
			p.iterations, elapsed, p.threshold)
		return model.Detected(p.ID(), evidence), nil
	}
	return model.NotDetected(p.ID()), nil
}

var _ Probe = (*TimingAntiDebugProbe)(nil)
