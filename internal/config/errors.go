package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrUnknownPlatform is returned when the platform override does not
	// parse to a supported platform. Supported spellings include
	// "windows", "linux", "darwin", and "macos".
	ErrUnknownPlatform = errors.New("unknown platform: use windows, linux, or darwin")

	// ErrInvalidTimingThreshold is returned when the timing threshold is
	// not positive. A zero threshold would flag every host.
	ErrInvalidTimingThreshold = errors.New("invalid timing threshold: must be positive")

	// ErrInvalidTimingIterations is returned when the timing loop size is
	// not positive. A zero-length loop measures nothing.
	ErrInvalidTimingIterations = errors.New("invalid timing iterations: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not
	// positive. A concurrency of zero would mean no probes execute.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a
	// time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
