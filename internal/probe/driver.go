package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/vmdetect/internal/model"
)

// DriverPresenceProbe checks for drivers installed by guest additions and
// paravirtual hardware. Guest tooling loads kernel drivers that have no
// reason to exist on physical machines, so a single denylisted name is
// conclusive.
//
// Windows lists driver files under System32\drivers; Linux lists loaded
// kernel modules from /proc/modules.
type DriverPresenceProbe struct {
	// denylist holds lowercase driver names for the current platform.
	denylist []string
	// drivers collects the installed driver names of this host.
	drivers func() ([]string, error)
}

// NewDriverPresenceProbe creates a new DriverPresenceProbe backed by the
// platform collector.
func NewDriverPresenceProbe() *DriverPresenceProbe {
	return &DriverPresenceProbe{
		denylist: driverDenylistFor(model.CurrentPlatform()),
		drivers:  listLoadedDrivers,
	}
}

// ID returns the probe identifier.
func (p *DriverPresenceProbe) ID() string {
	return ProbeIDDriver
}

// Platforms returns the platforms this probe supports.
func (p *DriverPresenceProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformWindows, model.PlatformLinux}
}

// Run lists installed drivers and matches each name against the denylist.
func (p *DriverPresenceProbe) Run(_ context.Context) (model.ProbeResult, error) {
	drivers, err := p.drivers()
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("list drivers: %w", err)
	}

	for _, driver := range drivers {
		name := strings.ToLower(driver)
		for _, denied := range p.denylist {
			if name == denied {
				evidence := fmt.Sprintf("driver %q is present", driver)
				return model.Detected(p.ID(), evidence), nil
			}
		}
	}
	return model.NotDetected(p.ID()), nil
}
