package probe

import (
	"context"
	"fmt"
	"os"

	"github.com/nao1215/vmdetect/internal/model"
)

// ArtifactPathProbe checks for filesystem paths that guest tooling leaves
// behind: VMware Tools and VirtualBox Guest Additions install directories
// on Windows, guest utilities and paravirtual device nodes on Linux.
type ArtifactPathProbe struct {
	// paths holds the guest-tooling paths for the current platform.
	paths []string
}

// NewArtifactPathProbe creates a new ArtifactPathProbe with the path table
// for the current platform.
func NewArtifactPathProbe() *ArtifactPathProbe {
	return &ArtifactPathProbe{
		paths: artifactPathsFor(model.CurrentPlatform()),
	}
}

// ID returns the probe identifier.
func (p *ArtifactPathProbe) ID() string {
	return ProbeIDArtifact
}

// Platforms returns the platforms this probe supports.
func (p *ArtifactPathProbe) Platforms() []model.Platform {
	return []model.Platform{model.PlatformWindows, model.PlatformLinux}
}

// Run stats every path in the table. Any path that exists is conclusive.
// Stat errors other than non-existence (permission, unreadable parent) are
// treated as not found; the probe only trusts positive sightings.
func (p *ArtifactPathProbe) Run(_ context.Context) (model.ProbeResult, error) {
	for _, path := range p.paths {
		if _, err := os.Stat(path); err == nil {
			evidence := fmt.Sprintf("guest tooling path %q exists", path)
			return model.Detected(p.ID(), evidence), nil
		}
	}
	return model.NotDetected(p.ID()), nil
}
