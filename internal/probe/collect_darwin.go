//go:build darwin

package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// macOS collectors cover only the probes that declare darwin support. The
// firmware and driver surfaces read on Windows and Linux have no wired-up
// macOS equivalent, so their collectors report unsupported.

func readHardwareIdentity() (string, error) {
	return "", fmt.Errorf("hardware identity: %w", ErrUnsupportedPlatform)
}

func listLoadedDrivers() ([]string, error) {
	return nil, fmt.Errorf("driver listing: %w", ErrUnsupportedPlatform)
}

// listProcessNames shells out to ps because macOS has no procfs. The -c
// flag reduces each entry to the bare executable name.
func listProcessNames(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "ps", "-axc", "-o", "comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("run ps: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
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
