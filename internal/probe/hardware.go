package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/vmdetect/internal/model"
)

// HardwareIdentityProbe checks the machine identity reported by the
// firmware for the names of known hypervisor products. Virtual machines
// advertise their product line through SMBIOS/DMI fields ("VMware Virtual
// Platform", "VirtualBox", "Virtual Machine"), and guests rarely override
// those strings.
//
// Windows reads the identity from the registry BIOS description; Linux
// reads the DMI vendor and product name from sysfs.
type HardwareIdentityProbe struct {
	// denylist holds lowercase substrings that mark a virtual identity.
	denylist []string
	// identity collects the vendor and product identity of this host.
	identity func() (string, error)
}

// NewHardwareIdentityProbe creates a new HardwareIdentityProbe backed by
// the platform collector.
func NewHardwareIdentityProbe() *HardwareIdentityProbe {
	return &HardwareIdentityProbe{
		denylist: hardwareModelDenylist,
		identity: readHardwareIdentity,
	}
}

// ID returns the probe identifier.
func (p *HardwareIdentityProbe) ID() string {
	return ProbeIDHardware
}

// Platforms returns the platforms this probe supports.
func (p *HardwareIdentityProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformWindows, model.PlatformLinux}
}

// Run reads the hardware identity and matches it against the denylist.
func (p *HardwareIdentityProbe) Run(_ context.Context) (model.ProbeResult, error) {
	identity, err := p.identity()
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("read hardware identity: %w", err)
	}

	lowered := strings.ToLower(identity)
	for _, marker := range p.denylist {
		if strings.Contains(lowered, marker) {
			evidence := fmt.Sprintf("hardware identity %q contains %q", identity, marker)
			return model.Detected(p.ID(), evidence), nil
		}
	}
	return model.NotDetected(p.ID()), nil
}

var _ Probe = (*HardwareIdentityProbe)(nil)
