//go:build windows

package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// Windows collectors read the registry and Win32 APIs directly rather
// than shelling out to wmic or reg.exe, which are deprecated or absent on
// recent builds.

var (
	kernel32                       = windows.NewLazySystemDLL("kernel32.dll")
	ntdll                          = windows.NewLazySystemDLL("ntdll.dll")
	procIsDebuggerPresent          = kernel32.NewProc("IsDebuggerPresent")
	procCheckRemoteDebuggerPresent = kernel32.NewProc("CheckRemoteDebuggerPresent")
	procNtQueryInformationProcess  = ntdll.NewProc("NtQueryInformationProcess")
)

// processDebugPort is the ProcessInformationClass value that asks
// NtQueryInformationProcess for the debug port.
const processDebugPort = 7

// biosRegistryKey holds the SMBIOS identity Windows copies into the
// registry at boot.
const biosRegistryKey = `HARDWARE\DESCRIPTION\System\BIOS`

func readHardwareIdentity() (string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, biosRegistryKey, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("open BIOS registry key: %w", err)
	}
	defer key.Close()

	var parts []string
	for _, value := range []string{"SystemManufacturer", "SystemProductName"} {
		s, _, err := key.GetStringValue(value)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("BIOS registry key has no identity values")
	}
	return strings.Join(parts, " "), nil
}

func listLoadedDrivers() ([]string, error) {
	dir := filepath.Join(systemRoot(), "System32", "drivers")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read drivers directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func listProcessNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("create process snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snapshot, &entry); err != nil {
		return nil, fmt.Errorf("walk process snapshot: %w", err)
	}
	var names []string
	for {
		names = append(names, windows.UTF16ToString(entry.ExeFile[:]))
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			break
		}
	}
	return names, nil
}

func readCPUInfo() (string, error) {
	return "", fmt.Errorf("cpuinfo: %w", ErrUnsupportedPlatform)
}

func queryDebugger() (string, error) {
	if ret, _, _ := procIsDebuggerPresent.Call(); ret != 0 {
		return "IsDebuggerPresent reports an attached debugger", nil
	}

	process := windows.CurrentProcess()
	var remote int32
	ret, _, _ := procCheckRemoteDebuggerPresent.Call(uintptr(process), uintptr(unsafe.Pointer(&remote)))
	if ret != 0 && remote != 0 {
		return "CheckRemoteDebuggerPresent reports a remote debugger", nil
	}

	var debugPort uintptr
	status, _, _ := procNtQueryInformationProcess.Call(
		uintptr(process),
		processDebugPort,
		uintptr(unsafe.Pointer(&debugPort)),
		unsafe.Sizeof(debugPort),
		0,
	)
	if status == 0 && debugPort != 0 {
		return "NtQueryInformationProcess reports an active debug port", nil
	}
	return "", nil
}

func detectSandboxArtifacts() (string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, sandboxUninstallKey, registry.QUERY_VALUE)
	if err == nil {
		key.Close()
		return "Windows Sandbox uninstall registry key is present", nil
	}

	appsDir := filepath.Join(programFiles(), "WindowsApps")
	for _, pattern := range sandboxPackageGlobs {
		matches, err := filepath.Glob(filepath.Join(appsDir, pattern))
		if err != nil {
			continue
		}
		if len(matches) > 0 {
			return fmt.Sprintf("sandbox package %q is installed", filepath.Base(matches[0])), nil
		}
	}
	return "", nil
}

func systemRoot() string {
	if root := os.Getenv("SystemRoot"); root != "" {
		return root
	}
	return `C:\Windows`
}

func programFiles() string {
	if dir := os.Getenv("ProgramFiles"); dir != "" {
		return dir
	}
	return `C:\Program Files`
}
