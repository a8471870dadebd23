// Package model defines the core data structures used throughout vmdetect.
//
// This package contains the following main types:
//   - Platform: The operating system the engine is probing
//   - Outcome: The three-valued result of a single probe
//   - ProbeResult: One probe's outcome with evidence and cost
//   - Report: The main detection result structure
//   - Summary: A summarized, human-readable report
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (probe, engine, report, database) need to use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
