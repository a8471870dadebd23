package model

import "runtime"

// platformUnknownStr is the string representation for unknown platform values.
const platformUnknownStr = "unknown"

// Platform represents the operating system the engine is probing.
// Probes declare the platforms they apply to, and the registry filters
// by the current (or overridden) platform before a run.
type Platform string

// Platform constants.
const (
	// PlatformUnknown represents an unrecognized operating system.
	PlatformUnknown Platform = ""
	// PlatformWindows represents Microsoft Windows.
	PlatformWindows Platform = "windows"
	// PlatformLinux represents Linux.
	PlatformLinux Platform = "linux"
	// PlatformDarwin represents macOS.
	PlatformDarwin Platform = "darwin"
)

// String returns the string representation of the Platform.
func (p Platform) String() string {
	if p == PlatformUnknown {
		return platformUnknownStr
	}
	return string(p)
}

// IsValid returns true if this is a known platform.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformWindows, PlatformLinux, PlatformDarwin:
		return true
	default:
		return false
	}
}

// CurrentPlatform returns the platform the process is running on.
// Returns PlatformUnknown for operating systems the engine has no
// probes for (e.g. the BSDs), which yields an empty probe set rather
// than a crash.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformUnknown
	}
}

// ParsePlatform converts a string to Platform.
// Common aliases ("win", "macos", "mac", "osx") are accepted so the
// platform override flag is forgiving.
func ParsePlatform(s string) Platform {
	switch s {
	case "windows", "win":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	case "darwin", "macos", "mac", "osx":
		return PlatformDarwin
	default:
		return PlatformUnknown
	}
}

// SupportedPlatforms returns every platform the engine has probes for.
func SupportedPlatforms() []Platform {
	return []Platform{PlatformWindows, PlatformLinux, PlatformDarwin}
}
