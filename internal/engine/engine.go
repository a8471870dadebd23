package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nao1215/vmdetect/internal/model"
	"github.com/nao1215/vmdetect/internal/probe"
)

// SelectionAll is the probe selection keyword that means "every probe
// applicable to the platform". An empty selection means the same thing.
const SelectionAll = "all"

// Engine resolves, schedules, and runs detection probes.
type Engine struct {
	// registry supplies the probes. Defaults to the built-in registry.
	registry *probe.Registry

	// platform the engine filters probes for. Defaults to the platform
	// the binary runs on; overridable for tests.
	platform model.Platform

	// subset restricts the run to named probes. Empty means all.
	subset []string

	// probes is the resolved, ordered execution list.
	probes []probe.Probe

	// concurrency is the maximum number of probes running at once.
	// 1 means strictly sequential execution.
	concurrency int

	// timingOpts tunes the built-in timing probe when the engine builds
	// its own registry.
	timingOpts []probe.RegistryOption

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
// If not set, the default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPlatform overrides the platform the engine filters probes for.
//
// Design decision: this exists for tests and for inspecting what another
// platform's probe set looks like (vmdetect detect --platform linux on a
// Mac lists the Linux probes as inconclusive rather than running them);
// collectors still read the real host, so cross-platform results are only
// meaningful for the portable probes.
func WithPlatform(platform model.Platform) Option {
	return func(e *Engine) {
		e.platform = platform
	}
}

// WithProbes restricts the run to the named probes. The keyword "all" or
// an empty list selects every applicable probe. A name that matches no
// registered probe makes New fail with ErrUnknownProbe.
func WithProbes(ids []string) Option {
	return func(e *Engine) {
		e.subset = ids
	}
}

// WithConcurrency sets the maximum number of probes running at once.
// The default of 1 runs probes sequentially. Values above 1 enable the
// concurrent schedule; timing-sensitive probes still run alone first.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRegistry replaces the built-in probe registry. Timing options are
// ignored when a custom registry is supplied.
func WithRegistry(r *probe.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithTimingThreshold tunes the timing probe's elapsed-time threshold.
func WithTimingThreshold(d time.Duration) Option {
	return func(e *Engine) {
		e.timingOpts = append(e.timingOpts, probe.WithTimingThreshold(d))
	}
}

// WithTimingIterations tunes the timing probe's loop size.
func WithTimingIterations(n int) Option {
	return func(e *Engine) {
		e.timingOpts = append(e.timingOpts, probe.WithTimingIterations(n))
	}
}

// New creates an Engine and resolves its probe list. Probe selection is
// validated here, so a misspelled probe name fails before any probe runs.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		platform:    model.CurrentPlatform(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.registry == nil {
		e.registry = probe.NewRegistry(e.timingOpts...)
	}

	probes, err := e.resolveProbes()
	if err != nil {
		return nil, fmt.Errorf("resolve probes: %w", err)
	}
	e.probes = probes
	return e, nil
}

// resolveProbes turns the configured subset into an ordered probe list.
func (e *Engine) resolveProbes() ([]probe.Probe, error) {
	subset := normalizeSelection(e.subset)
	if subset == nil {
		return e.registry.ProbesFor(e.platform), nil
	}
	return e.registry.Select(e.platform, subset)
}

// normalizeSelection lowercases and trims the requested probe names and
// collapses "select everything" spellings (empty list, blank entries, the
// "all" keyword) to nil.
func normalizeSelection(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if id == SelectionAll {
			return nil
		}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// ProbeIDs returns the identifiers of the probes this engine will run, in
// execution order.
func (e *Engine) ProbeIDs() []string {
	ids := make([]string, len(e.probes))
	for i, p := range e.probes {
		ids[i] = p.ID()
	}
	return ids
}

// Platform returns the platform the engine filters probes for.
func (e *Engine) Platform() model.Platform {
	return e.platform
}

// Detect runs the resolved probes and aggregates their results into a
// report. It never fails: probe faults become Inconclusive results, and a
// platform with no applicable probes yields a clean report carrying the
// no-probes warning.
func (e *Engine) Detect(ctx context.Context) *model.Report {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	report := model.NewReport(hostname, e.platform)
	start := time.Now()

	e.logger.Info("starting detection",
		"platform", e.platform.String(),
		"probes", len(e.probes),
		"concurrency", e.concurrency,
	)

	if len(e.probes) == 0 {
		report.AddWarning(model.NoProbesWarning)
		report.Elapsed = time.Since(start)
		e.logger.Warn("no probes applicable", "platform", e.platform.String())
		return report
	}

	var results []model.ProbeResult
	if e.concurrency > 1 {
		results = e.runConcurrent(ctx, e.probes)
	} else {
		results = e.runSequential(ctx, e.probes)
	}

	for _, result := range results {
		report.AddResult(result)
	}
	report.Verdict = Aggregate(results)
	report.Elapsed = time.Since(start)
	report.Summary = model.NewSummary(report)

	if ctx.Err() != nil {
		report.AddWarning("detection interrupted; unfinished probes are inconclusive")
	}

	e.logger.Info("detection complete",
		"verdict", report.VerdictText(),
		"elapsed", report.Elapsed,
	)
	return report
}
