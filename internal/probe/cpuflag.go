package probe

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/vmdetect/internal/model"
)

// CPUFlagProbe checks /proc/cpuinfo for the hypervisor CPU flag. The flag
// mirrors CPUID leaf 1 bit 31, which is reserved on physical processors
// and set by every mainstream hypervisor for its guests.
type CPUFlagProbe struct {
	// cpuinfo reads the processor description of this host.
	cpuinfo func() (string, error)
}

// NewCPUFlagProbe creates a new CPUFlagProbe backed by the platform
// collector.
func NewCPUFlagProbe() *CPUFlagProbe {
	return &CPUFlagProbe{
		cpuinfo: readCPUInfo,
	}
}

// ID returns the probe identifier.
func (p *CPUFlagProbe) ID() string {
	return ProbeIDCPUFlag
}

// Platforms returns the platforms this probe supports.
func (p *CPUFlagProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformLinux}
}

// Run scans the flags lines of the processor description for the
// hypervisor flag.
func (p *CPUFlagProbe) Run(_ context.Context) (model.ProbeResult, error) {
	contents, err := p.cpuinfo()
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("read cpuinfo: %w", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(contents))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "flags") {
			continue
		}
		for _, flag := range strings.Fields(line) {
			if flag == "hypervisor" {
				return model.Detected(p.ID(), "cpu flags include the hypervisor bit"), nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return model.ProbeResult{}, fmt.Errorf("scan cpuinfo: %w", err)
	}
	return model.NotDetected(p.ID()), nil
}
