// Package log provides secure logging utilities for vmdetect.
//
// # Purpose
//
// Detection runs log the evidence they find, and that evidence contains
// host-identifying values: full MAC addresses, machine serial numbers,
// hardware UUIDs. Log output gets pasted into bug reports and CI logs, so
// this package wraps slog handlers to redact those identifiers before
// they are written.
//
// # What Is Redacted
//
// MAC addresses keep their vendor prefix and lose their NIC-specific
// tail ("08:00:27:xx:xx:xx"). The prefix is the diagnostically useful
// part of a detection; the tail uniquely identifies the host machine and
// adds nothing. Attributes whose keys name serial numbers, UUIDs, or
// machine identifiers are masked entirely.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("probe finished", "mac", "08:00:27:12:34:56")
//	// logs mac=08:00:27:xx:xx:xx
package log
