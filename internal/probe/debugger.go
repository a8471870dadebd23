package probe

import (
	"context"
	"fmt"

	"github.com/nao1215/vmdetect/internal/model"
)

// DebuggerAPIProbe asks the Windows debugging facilities whether a
// debugger is attached to this process. Three independent facilities are
// consulted: IsDebuggerPresent for a local user-mode debugger,
// CheckRemoteDebuggerPresent for a debugger in another process, and the
// NtQueryInformationProcess debug port for debuggers that hide from the
// first two.
type DebuggerAPIProbe struct {
	// query consults the platform debugging facilities. It returns the
	// name of the facility that saw a debugger, or an empty string when
	// all facilities report clean.
	query func() (string, error)
}

// NewDebuggerAPIProbe creates a new DebuggerAPIProbe backed by the
// platform collector.
func NewDebuggerAPIProbe() *DebuggerAPIProbe {
	return &DebuggerAPIProbe{
		query: queryDebugger,
	}
}

// ID returns the probe identifier.
func (p *DebuggerAPIProbe) ID() string {
	return ProbeIDDebugger
}

// Platforms returns the platforms this probe supports.
func (p *DebuggerAPIProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformWindows}
}

// Run consults the debugging facilities.
func (p *DebuggerAPIProbe) Run(_ context.Context) (model.ProbeResult, error) {
	facility, err := p.query()
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("query debugger facilities: %w", err)
	}
	if facility != "" {
		return model.Detected(p.ID(), facility), nil
	}
	return model.NotDetected(p.ID()), nil
}
