// Package config provides configuration structures and utilities for
// vmdetect. It defines the main configuration options for probe
// selection, timing tuning, report generation, and history persistence.
package config
