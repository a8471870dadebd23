package probe

import (
	"context"
	"fmt"

	"github.com/nao1215/vmdetect/internal/model"
)

// SandboxArtifactProbe checks for the installation footprint of Windows
// Sandbox: the uninstall registry key the feature registers and the
// versioned application packages under WindowsApps.
type SandboxArtifactProbe struct {
	// artifacts scans the platform sandbox footprint. It returns a
	// description of the artifact it found, or an empty string when the
	// footprint is absent.
	artifacts func() (string, error)
}

// NewSandboxArtifactProbe creates a new SandboxArtifactProbe backed by the
// platform collector.
func NewSandboxArtifactProbe() *SandboxArtifactProbe {
	return &SandboxArtifactProbe{
		artifacts: detectSandboxArtifacts,
	}
}

// ID returns the probe identifier.
func (p *SandboxArtifactProbe) ID() string {
	return ProbeIDSandbox
}

// Platforms returns the platforms this probe supports.
func (p *SandboxArtifactProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformWindows}
}

// Run scans for sandbox installation artifacts.
func (p *SandboxArtifactProbe) Run(_ context.Context) (model.ProbeResult, error) {
	artifact, err := p.artifacts()
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("scan sandbox artifacts: %w", err)
	}
	if artifact != "" {
		return model.Detected(p.ID(), artifact), nil
	}
	return model.NotDetected(p.ID()), nil
}
