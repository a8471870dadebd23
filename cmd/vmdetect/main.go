// Package main provides the entry point for the vmdetect CLI.
//
// vmdetect inspects the machine it runs on for evidence of virtualization,
// sandboxing, and attached debuggers, and reports a verdict with per-probe
// evidence.
//
// Usage:
//
//	vmdetect detect
//	vmdetect detect --probes hardware,macaddr --json
//
// See --help for all available options.
package main

// main is the entry point for vmdetect.
func main() {
	Execute()
}
