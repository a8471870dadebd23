package probe

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nao1215/vmdetect/internal/model"
)

// Probe identifiers. These are stable strings used in reports, history
// records, and --probes selection, so they must never change once released.
const (
	ProbeIDArtifact = "artifact"
	ProbeIDCPUFlag  = "cpuflag"
	ProbeIDDebugger = "debugger"
	ProbeIDDriver   = "driver"
	ProbeIDHardware = "hardware"
	ProbeIDMACAddr  = "macaddr"
	ProbeIDProcess  = "process"
	ProbeIDSandbox  = "sandbox"
	ProbeIDTiming   = "timing"
)

// Probe is the interface that all environment probes implement.
type Probe interface {
	// ID returns the stable probe identifier.
	ID() string
	// Platforms returns the platforms the probe can produce a meaningful
	// answer on. The registry filters by this before execution.
	Platforms() []model.Platform
	// Run executes the check and reports what it observed. A returned
	// error means the probe could not read its host surface; the runner
	// converts it into an Inconclusive result rather than aborting.
	Run(ctx context.Context) (model.ProbeResult, error)
}

// Registry holds the probes available to the detection engine.
//
// Design decision: probes are stored in a map keyed by identifier and
// sorted whenever they leave the registry. Registration order therefore
// never influences report order, which keeps reports byte-comparable
// across runs and across probe additions.
type Registry struct {
	probes map[string]Probe
}

// registryOptions holds construction-time tuning for built-in probes.
type registryOptions struct {
	timingOpts []TimingOption
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryOptions)

// WithTimingThreshold overrides the elapsed-time threshold of the built-in
// timing probe.
func WithTimingThreshold(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timingOpts = append(o.timingOpts, TimingThreshold(d))
	}
}

// WithTimingIterations overrides the loop iteration count of the built-in
// timing probe.
func WithTimingIterations(n int) RegistryOption {
	return func(o *registryOptions) {
		o.timingOpts = append(o.timingOpts, TimingIterations(n))
	}
}

// NewRegistry creates a Registry populated with every built-in probe.
func NewRegistry(opts ...RegistryOption) *Registry {
	var options registryOptions
	for _, opt := range opts {
		opt(&options)
	}

	r := &Registry{probes: make(map[string]Probe)}
	builtins := []Probe{
		NewArtifactPathProbe(),
		NewCPUFlagProbe(),
		NewDebuggerAPIProbe(),
		NewDriverPresenceProbe(),
		NewHardwareIdentityProbe(),
		NewMacPrefixProbe(),
		NewSuspiciousProcessProbe(),
		NewSandboxArtifactProbe(),
		NewTimingAntiDebugProbe(options.timingOpts...),
	}
	for _, p := range builtins {
		if err := r.Register(p); err != nil {
			// Built-in identifiers are compile-time constants; a
			// collision here is a programming error.
			panic(err)
		}
	}
	return r
}

// NewEmptyRegistry creates a Registry with no probes, for callers that
// assemble their own probe set through Register.
func NewEmptyRegistry() *Registry {
	return &Registry{probes: make(map[string]Probe)}
}

// Register adds a probe to the registry. Registering a probe whose
// identifier is already present returns ErrDuplicateProbe.
func (r *Registry) Register(p Probe) error {
	if _, exists := r.probes[p.ID()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProbe, p.ID())
	}
	r.probes[p.ID()] = p
	return nil
}

// All returns every registered probe sorted by identifier.
func (r *Registry) All() []Probe {
	probes := make([]Probe, 0, len(r.probes))
	for _, p := range r.probes {
		probes = append(probes, p)
	}
	sortProbes(probes)
	return probes
}

// ProbesFor returns the probes applicable to the given platform, sorted by
// identifier. A probe is applicable when its Platforms() list contains the
// platform.
func (r *Registry) ProbesFor(platform model.Platform) []Probe {
	probes := make([]Probe, 0, len(r.probes))
	for _, p := range r.probes {
		if appliesTo(p, platform) {
			probes = append(probes, p)
		}
	}
	sortProbes(probes)
	return probes
}

// Select returns the requested probes that are applicable to the given
// platform, sorted by identifier. A requested identifier that matches no
// registered probe returns ErrUnknownProbe; a known probe that is simply
// not applicable to the platform is silently filtered out, matching the
// behavior of an unrestricted run. Duplicate identifiers are collapsed.
func (r *Registry) Select(platform model.Platform, ids []string) ([]Probe, error) {
	selected := make(map[string]Probe, len(ids))
	for _, id := range ids {
		p, ok := r.probes[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known probes: %v)", ErrUnknownProbe, id, r.IDs())
		}
		if appliesTo(p, platform) {
			selected[id] = p
		}
	}

	probes := make([]Probe, 0, len(selected))
	for _, p := range selected {
		probes = append(probes, p)
	}
	sortProbes(probes)
	return probes, nil
}

// IDs returns the identifiers of all registered probes in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.probes))
	for id := range r.probes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered probes.
func (r *Registry) Len() int {
	return len(r.probes)
}

func sortProbes(probes []Probe) {
	sort.Slice(probes, func(i, j int) bool {
		return probes[i].ID() < probes[j].ID()
	})
}

func appliesTo(p Probe, platform model.Platform) bool {
	for _, supported := range p.Platforms() {
		if supported == platform {
			return true
		}
	}
	return false
}
