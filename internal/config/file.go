package config

import "time"

// File represents the structure of the .vmdetect configuration file.
// Every field is optional; absent fields keep their built-in defaults.
type File struct {
	// Probes selects the probes that run by default.
	// The keyword "all" (or omitting the list) selects everything.
	Probes []string `yaml:"probes,omitempty"`

	// TimingThresholdMs overrides the timing probe threshold, in
	// milliseconds. Durations are carried as integer milliseconds
	// because YAML has no native duration type.
	TimingThresholdMs int64 `yaml:"timingThresholdMs,omitempty"`

	// TimingIterations overrides the timing probe loop size.
	TimingIterations int `yaml:"timingIterations,omitempty"`

	// Concurrency overrides the maximum number of probes running at
	// once. 1 means sequential execution.
	Concurrency int `yaml:"concurrency,omitempty"`

	// History configures report persistence.
	History HistoryConfig `yaml:"history,omitempty"`
}

// HistoryConfig configures the detection history database.
type HistoryConfig struct {
	// Enabled turns report persistence on or off. A pointer
	// distinguishes "not set" from an explicit false, so the file can
	// disable the default-on persistence of the detect command.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Dir is the directory holding the SQLite database.
	// Empty means the XDG data directory.
	Dir string `yaml:"dir,omitempty"`
}

// ApplyTo overlays the file's settings onto a Config. Only fields the
// file actually sets (non-zero values) are applied, so file settings
// refine the defaults without erasing them. CLI flags are applied after
// this and take precedence.
func (f *File) ApplyTo(c *Config) {
	if len(f.Probes) > 0 {
		c.Probes = f.Probes
	}
	if f.TimingThresholdMs > 0 {
		c.TimingThreshold = time.Duration(f.TimingThresholdMs) * time.Millisecond
	}
	if f.TimingIterations > 0 {
		c.TimingIterations = f.TimingIterations
	}
	if f.Concurrency > 0 {
		c.Concurrency = f.Concurrency
	}
	if f.History.Enabled != nil {
		c.SaveToDB = *f.History.Enabled
	}
	if f.History.Dir != "" {
		c.DBDir = f.History.Dir
	}
}
