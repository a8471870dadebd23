package model

// Outcome represents the three-valued result of a single probe.
// The third value exists so the aggregator never has to treat
// "could not check" as "checked and clean".
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and counting. The String() method provides
// human-readable output when needed.
type Outcome int

const (
	// OutcomeInconclusive indicates the probe could not reach a decision.
	// Examples: permission denied, unavailable OS facility, probe fault.
	// This is the zero value, so a ProbeResult that was never filled in
	// reads as "undecided" rather than as a clean result.
	OutcomeInconclusive Outcome = iota

	// OutcomeNotDetected indicates the probe ran and found nothing.
	OutcomeNotDetected

	// OutcomeDetected indicates the probe found a virtualization, sandbox,
	// or debugger artifact. A single detected outcome is enough to flip
	// the run verdict.
	OutcomeDetected
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeInconclusive:
		return "INCONCLUSIVE"
	case OutcomeNotDetected:
		return "NOT_DETECTED"
	case OutcomeDetected:
		return "DETECTED"
	default:
		return "UNKNOWN"
	}
}

// ParseOutcome converts a string to Outcome.
// Unrecognized strings map to OutcomeInconclusive, the safe default.
func ParseOutcome(s string) Outcome {
	switch s {
	case "DETECTED", "detected":
		return OutcomeDetected
	case "NOT_DETECTED", "not_detected":
		return OutcomeNotDetected
	default:
		return OutcomeInconclusive
	}
}

// ProbeInfo contains display metadata about a probe: its short title,
// the signal category it belongs to, and what it looks for.
type ProbeInfo struct {
	Title       string
	Category    string
	Description string
}

// Probe signal categories.
const (
	// CategoryVirtualization groups probes that look for VM guest artifacts.
	CategoryVirtualization = "virtualization"
	// CategorySandbox groups probes that look for sandbox environments.
	CategorySandbox = "sandbox"
	// CategoryDebugging groups probes that look for attached debuggers.
	CategoryDebugging = "debugging"
)

// probeInfoMapping maps probe identifiers to their display metadata.
// This centralized mapping keeps report output consistent across writers.
//
// Design decision: We use a map rather than embedding metadata in each probe
// type because:
// 1. It keeps presentation text out of the detection logic
// 2. It provides a single source of truth for probe documentation
// 3. It makes it easy to render a catalog of available probes
var probeInfoMapping = map[string]ProbeInfo{
	"artifact": {
		Title:       "Guest Software Artifacts",
		Category:    CategoryVirtualization,
		Description: "Looks for install paths and device nodes left by virtualization guest tools.",
	},
	"cpuflag": {
		Title:       "Hypervisor CPU Flag",
		Category:    CategoryVirtualization,
		Description: "Checks the CPU flags the kernel reports for the hypervisor bit.",
	},
	"debugger": {
		Title:       "Debugger API Query",
		Category:    CategoryDebugging,
		Description: "Asks the operating system whether a debugger is attached to this process.",
	},
	"driver": {
		Title:       "Virtualization Drivers",
		Category:    CategoryVirtualization,
		Description: "Looks for loaded kernel modules or driver files shipped by hypervisor guests.",
	},
	"hardware": {
		Title:       "Hardware Model Identity",
		Category:    CategoryVirtualization,
		Description: "Matches the reported system vendor and model strings against known VM products.",
	},
	"macaddr": {
		Title:       "MAC Vendor Prefix",
		Category:    CategoryVirtualization,
		Description: "Matches network interface OUI prefixes against known VM vendor allocations.",
	},
	"process": {
		Title:       "Analysis Tool Processes",
		Category:    CategorySandbox,
		Description: "Scans running process names for guest agents, capture tools, and debuggers.",
	},
	"sandbox": {
		Title:       "Windows Sandbox Artifacts",
		Category:    CategorySandbox,
		Description: "Looks for the Windows Sandbox package registration and app directories.",
	},
	"timing": {
		Title:       "Instruction Timing Skew",
		Category:    CategoryDebugging,
		Description: "Times a fixed CPU-bound loop; single-stepping inflates the elapsed time.",
	},
}

// GetProbeInfo returns the display metadata for a probe identifier.
// Returns a generic ProbeInfo if the identifier is not in the mapping,
// so externally registered probes still render.
func GetProbeInfo(probeID string) ProbeInfo {
	if info, ok := probeInfoMapping[probeID]; ok {
		return info
	}
	return ProbeInfo{
		Title:       probeID,
		Category:    CategoryVirtualization,
		Description: "No description registered for this probe.",
	}
}
