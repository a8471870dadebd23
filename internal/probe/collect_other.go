//go:build !windows && !linux && !darwin

package probe

import (
	"context"
	"fmt"
)

// Fallback collectors for platforms without an implementation. The
// registry filters probes by platform before execution, so these only run
// if a probe declares a platform its collectors do not cover.

func readHardwareIdentity() (string, error) {
	return "", fmt.Errorf("hardware identity: %w", ErrUnsupportedPlatform)
}

func listLoadedDrivers() ([]string, error) {
	return nil, fmt.Errorf("driver listing: %w", ErrUnsupportedPlatform)
}

func listProcessNames(_ context.Context) ([]string, error) {
	return nil, fmt.Errorf("process listing: %w", ErrUnsupportedPlatform)
}

func readCPUInfo() (string, error) {
	return "", fmt.Errorf("cpuinfo: %w", ErrUnsupportedPlatform)
}

func queryDebugger() (string, error) {
	return "", fmt.Errorf("debugger facilities: %w", ErrUnsupportedPlatform)
}

func detectSandboxArtifacts() (string, error) {
	return "", fmt.Errorf("sandbox artifacts: %w", ErrUnsupportedPlatform)
}
