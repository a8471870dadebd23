package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/vmdetect/internal/model"
)

// SuspiciousProcessProbe checks the running process list for guest-tooling
// daemons and analysis tools. VMware Tools, VirtualBox services, packet
// sniffers, and debuggers all announce themselves through well-known
// process names.
//
// Process names are normalized to lowercase with the .exe suffix stripped,
// so one denylist covers Windows, Linux, and macOS.
type SuspiciousProcessProbe struct {
	// denylist maps normalized process names to tool descriptions.
	denylist map[string]string
	// processes collects the names of running processes on this host.
	processes func(ctx context.Context) ([]string, error)
}

// NewSuspiciousProcessProbe creates a new SuspiciousProcessProbe backed by
// the platform collector.
func NewSuspiciousProcessProbe() *SuspiciousProcessProbe {
	return &SuspiciousProcessProbe{
		denylist:  processDenylist,
		processes: listProcessNames,
	}
}

// ID returns the probe identifier.
func (p *SuspiciousProcessProbe) ID() string {
	return ProbeIDProcess
}

// Platforms returns the platforms this probe supports.
func (p *SuspiciousProcessProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformWindows, model.PlatformLinux, model.PlatformDarwin}
}

// Run lists running processes and matches each normalized name against
// the denylist. An empty process list yields Inconclusive; at minimum the
// probe's own process should be visible, so an empty list means the
// enumeration did not work.
func (p *SuspiciousProcessProbe) Run(ctx context.Context) (model.ProbeResult, error) {
	names, err := p.processes(ctx)
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("list processes: %w", err)
	}
	if len(names) == 0 {
		return model.Inconclusive(p.ID(), "process enumeration returned no entries"), nil
	}

	for _, name := range names {
		normalized := normalizeProcessName(name)
		if tool, ok := p.denylist[normalized]; ok {
			evidence := fmt.Sprintf("process %q (%s) is running", name, tool)
			return model.Detected(p.ID(), evidence), nil
		}
	}
	return model.NotDetected(p.ID()), nil
}

// normalizeProcessName lowercases a process name and strips the Windows
// executable suffix so the denylist stays platform-neutral.
func normalizeProcessName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(normalized, ".exe")
}

var _ Probe = (*SuspiciousProcessProbe)(nil)
