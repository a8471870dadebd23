//go:build linux

package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Linux collectors read the kernel's procfs and sysfs surfaces directly.
// No external commands are involved.

// DMI identity files under sysfs. Vendor comes first so the combined
// identity reads naturally ("innotek GmbH VirtualBox").
var dmiIdentityPaths = []string{
	"/sys/class/dmi/id/sys_vendor",
	"/sys/class/dmi/id/product_name",
}

func readHardwareIdentity() (string, error) {
	var parts []string
	var lastErr error
	for _, path := range dmiIdentityPaths {
		raw, err := os.ReadFile(path)
		if err != nil {
			// DMI is absent on some ARM boards and restricted in some
			// containers; one readable field is enough.
			lastErr = err
			continue
		}
		if s := strings.TrimSpace(string(raw)); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		if lastErr == nil {
			return "", errors.New("dmi identity is empty")
		}
		return "", fmt.Errorf("read dmi identity: %w", lastErr)
	}
	return strings.Join(parts, " "), nil
}

func listLoadedDrivers() ([]string, error) {
	raw, err := os.ReadFile("/proc/modules")
	if err != nil {
		return nil, fmt.Errorf("read /proc/modules: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(raw), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names, nil
}

func listProcessNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}
		raw, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm"))
		if err != nil {
			// The process exited between the directory listing and the
			// read. Normal churn, not a failure.
			continue
		}
		if name := strings.TrimSpace(string(raw)); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func readCPUInfo() (string, error) {
	raw, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return "", fmt.Errorf("read /proc/cpuinfo: %w", err)
	}
	return string(raw), nil
}

// queryDebugger has no Linux implementation; the debugger probe declares
// itself Windows-only and is filtered out before execution.
func queryDebugger() (string, error) {
	return "", fmt.Errorf("debugger facilities: %w", ErrUnsupportedPlatform)
}

func detectSandboxArtifacts() (string, error) {
	return "", fmt.Errorf("sandbox artifacts: %w", ErrUnsupportedPlatform)
}
