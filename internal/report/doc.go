// Package report provides output formatting for detection reports.
//
// This package implements writers that output reports in various formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: machine-readable JSON for tool integration
//   - MarkdownWriter: Markdown for documentation and sharing
//
// All writers implement the Writer interface, and MultiWriter combines
// several of them so one run can feed the terminal and a file at once.
package report
