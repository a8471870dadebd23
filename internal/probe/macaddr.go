package probe

import (
	"context"
	"fmt"
	"net"

	"github.com/nao1215/vmdetect/internal/model"
)

// MacPrefixProbe checks the MAC addresses of every network interface
// against the OUI prefixes that virtualization vendors allocate guest NICs
// from. The first three octets of a MAC address identify the manufacturer,
// so a NIC minted by VMware or VirtualBox exposes the hypervisor even when
// every other identity string has been scrubbed.
//
// Interface enumeration works the same way on every platform, so this
// probe has no platform-specific collector.
type MacPrefixProbe struct {
	// vendors maps denylisted OUI prefixes to the product that owns them.
	vendors map[model.OUI]string
	// interfaces enumerates the network interfaces of this host.
	// Swappable so tests can supply synthetic interface sets.
	interfaces func() ([]net.Interface, error)
}

// NewMacPrefixProbe creates a new MacPrefixProbe backed by the standard
// interface enumeration.
func NewMacPrefixProbe() *MacPrefixProbe {
	return &MacPrefixProbe{
		vendors:    macVendorOUIs,
		interfaces: net.Interfaces,
	}
}

// ID returns the probe identifier.
func (p *MacPrefixProbe) ID() string {
	return ProbeIDMACAddr
}

// Platforms returns the platforms this probe supports.
func (p *MacPrefixProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformWindows, model.PlatformLinux, model.PlatformDarwin}
}

// Run enumerates interfaces and matches each MAC prefix against the
// vendor table. Interfaces without a hardware address (loopback, tunnels)
// are skipped. An empty interface list yields Inconclusive because the
// probe has observed nothing.
func (p *MacPrefixProbe) Run(_ context.Context) (model.ProbeResult, error) {
	ifaces, err := p.interfaces()
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("enumerate network interfaces: %w", err)
	}
	if len(ifaces) == 0 {
		return model.Inconclusive(p.ID(), "no network interfaces enumerable"), nil
	}

	for _, iface := range ifaces {
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		oui, err := model.OUIFromMAC(iface.HardwareAddr.String())
		if err != nil {
			continue
		}
		if vendor, ok := p.vendors[oui]; ok {
			evidence := fmt.Sprintf("interface %q has MAC %s matching %s prefix %s",
				iface.Name, iface.HardwareAddr, vendor, oui)
			return model.Detected(p.ID(), evidence), nil
		}
	}
	return model.NotDetected(p.ID()), nil
}

var _ Probe = (*MacPrefixProbe)(nil)
