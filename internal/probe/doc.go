// Package probe provides the environment checks that detect virtualized,
// sandboxed, or instrumented execution environments.
//
// # Purpose
//
// This package implements the individual detection probes and the registry
// that collects them. Each probe inspects one observable trait of the host
// (hardware identity strings, MAC address prefixes, loaded drivers, running
// processes, debugger facilities, filesystem artifacts) and reports whether
// that trait indicates an analysis environment.
//
// # Design Philosophy
//
// The probe package follows a modular probe pattern where each check is
// implemented as a separate Probe. This design was chosen because:
//  1. Each check reads a different host surface and fails independently
//  2. Enables selective execution based on configuration
//  3. Makes it easy to add new probes without modifying existing code
//  4. Simplifies testing of individual probes with injected collectors
//
// # Probe Outcomes
//
// Every probe answers with one of three outcomes:
//   - Detected: the trait matched a known virtualization or analysis signature
//   - NotDetected: the trait was readable and showed no known signature
//   - Inconclusive: the trait could not be read on this host
//
// Inconclusive is deliberately distinct from NotDetected. A probe that
// cannot enumerate network interfaces has learned nothing and must not be
// counted as evidence of a clean host.
//
// # Platform Awareness
//
// Probes declare the platforms they can answer on via Platforms(). The
// registry filters by platform before execution, so a Windows-only probe
// never runs (and never reports) on Linux. Platform-specific collection is
// isolated in build-tagged collector files; probe logic itself is portable
// and tested on every platform with injected collectors.
//
// # Usage
//
//	registry := probe.NewRegistry()
//	probes := registry.ProbesFor(model.CurrentPlatform())
//	for _, p := range probes {
//		result, err := p.Run(ctx)
//		...
//	}
package probe
