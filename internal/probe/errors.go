package probe

import "errors"

// Probe registry and collector errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances at each call site. This allows callers to
// use errors.Is() for programmatic error handling while still providing
// human-readable messages. Call sites wrap these sentinels with fmt.Errorf
// and %w when the failing probe or platform needs to be named.
var (
	// ErrDuplicateProbe is returned by Registry.Register when a probe with
	// the same identifier is already registered. Probe identifiers must be
	// unique because reports and probe selection are keyed by them.
	ErrDuplicateProbe = errors.New("probe identifier already registered")

	// ErrUnknownProbe is returned by Registry.Select when a requested
	// identifier does not match any registered probe. Misspelled probe
	// names fail loudly instead of silently shrinking the probe set.
	ErrUnknownProbe = errors.New("unknown probe identifier")

	// ErrUnsupportedPlatform is returned by collectors that have no
	// implementation for the platform the binary was built for. Probes are
	// normally filtered out by platform before their collectors run, so
	// this error indicates the probe was executed outside its declared
	// platform set.
	ErrUnsupportedPlatform = errors.New("collector not supported on this platform")
)
