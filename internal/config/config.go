package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/vmdetect/internal/model"
	"github.com/nao1215/vmdetect/internal/probe"
)

// Default configuration values.
const (
	// DefaultTimingThreshold mirrors the timing probe's built-in
	// threshold. It lives here too so the config layer can print and
	// validate defaults without constructing a probe.
	DefaultTimingThreshold = probe.DefaultTimingThreshold

	// DefaultTimingIterations mirrors the timing probe's built-in loop
	// size.
	DefaultTimingIterations = probe.DefaultTimingIterations

	// DefaultConcurrency of 1 runs probes strictly sequentially. The
	// timing probe measures wall-clock time, and concurrent siblings
	// would distort it; users opt into concurrency explicitly.
	DefaultConcurrency = 1

	// AppName is the application name used for XDG directory paths.
	AppName = "vmdetect"
)

// Config holds all configuration options for vmdetect.
// This struct is designed to be populated from CLI flags and the optional
// config file, then passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ProbeConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// Platform overrides the platform probes are filtered for.
	// Empty means the platform the binary runs on. Accepts the same
	// spellings as model.ParsePlatform ("windows", "linux", "macos", ...).
	Platform string

	// Probes restricts the run to the named probes.
	// Empty or containing "all" means every probe applicable to the
	// platform. An unknown name fails before any probe runs.
	Probes []string

	// TimingThreshold is the elapsed time above which the timing probe
	// reports an instrumented environment.
	TimingThreshold time.Duration

	// TimingIterations is the loop size of the timing probe.
	TimingIterations int

	// Concurrency is the maximum number of probes running at once.
	// 1 (default) means sequential execution in registry order.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// Pretty enables indented JSON output. Ignored for other formats.
	Pretty bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ExitCode makes the process exit with status 1 when the verdict is
	// Detected. This lets shell scripts branch on the verdict without
	// parsing report output.
	ExitCode bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .vmdetect in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// DBDir is the directory path for storing the SQLite history database.
	// When set, detection reports are saved for historical comparison.
	// When empty, reports are not persisted.
	// Defaults to the XDG data directory when SaveToDB is enabled.
	DBDir string

	// SaveToDB indicates whether to save detection reports to the
	// history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero (timing threshold,
// concurrency). This also serves as documentation of what the defaults
// are.
func NewConfig() *Config {
	return &Config{
		TimingThreshold:  DefaultTimingThreshold,
		TimingIterations: DefaultTimingIterations,
		Concurrency:      DefaultConcurrency,
	}
}

// ResolvePlatform returns the platform the run is configured for:
// the parsed Platform override, or the platform the binary runs on when
// no override is set.
func (c *Config) ResolvePlatform() model.Platform {
	if c.Platform == "" {
		return model.CurrentPlatform()
	}
	return model.ParsePlatform(c.Platform)
}

// XDGDataDir returns the XDG data directory for vmdetect.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/vmdetect
// On macOS: ~/Library/Application Support/vmdetect
// On Windows: %LOCALAPPDATA%\vmdetect
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for vmdetect.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/vmdetect
// On macOS: ~/Library/Application Support/vmdetect
// On Windows: %APPDATA%\vmdetect
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any probe runs.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// A platform override must parse to a known platform
	if c.Platform != "" && !model.ParsePlatform(c.Platform).IsValid() {
		return ErrUnknownPlatform
	}

	// The timing probe needs a positive threshold and loop size
	if c.TimingThreshold <= 0 {
		return ErrInvalidTimingThreshold
	}
	if c.TimingIterations <= 0 {
		return ErrInvalidTimingIterations
	}

	// Concurrency must be positive; zero would mean no probes run
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
