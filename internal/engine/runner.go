package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/vmdetect/internal/model"
	"github.com/nao1215/vmdetect/internal/probe"
	"golang.org/x/sync/errgroup"
)

// timingSensitive is implemented by probes whose measurement degrades
// under CPU contention. The concurrent schedule runs them alone.
type timingSensitive interface {
	TimingSensitive() bool
}

// runSequential executes probes one at a time in list order. This is the
// default schedule; probes that time their own execution get an
// uncontended CPU.
func (e *Engine) runSequential(ctx context.Context, probes []probe.Probe) []model.ProbeResult {
	results := make([]model.ProbeResult, len(probes))
	for i, p := range probes {
		if ctx.Err() != nil {
			results[i] = model.Inconclusive(p.ID(), "cancelled before execution")
			continue
		}
		results[i] = e.runOne(ctx, p)
	}
	return results
}

// runConcurrent executes probes in parallel up to the concurrency limit.
// Timing-sensitive probes run first, alone, so their measurement is not
// distorted by sibling probes; everything else then runs concurrently.
// Result order matches probe order regardless of completion order.
func (e *Engine) runConcurrent(ctx context.Context, probes []probe.Probe) []model.ProbeResult {
	results := make([]model.ProbeResult, len(probes))

	var remaining []int
	for i, p := range probes {
		if sensitive, ok := p.(timingSensitive); ok && sensitive.TimingSensitive() {
			if ctx.Err() != nil {
				results[i] = model.Inconclusive(p.ID(), "cancelled before execution")
				continue
			}
			results[i] = e.runOne(ctx, p)
			continue
		}
		remaining = append(remaining, i)
	}

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for _, i := range remaining {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = model.Inconclusive(probes[i].ID(), "cancelled before execution")
				return nil
			}
			// Goroutines write disjoint slice elements; Wait orders the
			// final read.
			results[i] = e.runOne(ctx, probes[i])
			return nil
		})
	}
	_ = g.Wait() // probe faults never surface as errors
	return results
}

// runOne executes a single probe, stamping its cost and converting an
// error or panic into an Inconclusive result carrying the reason.
func (e *Engine) runOne(ctx context.Context, p probe.Probe) (result model.ProbeResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("probe panicked", "probe", p.ID(), "panic", r)
			result = model.Inconclusive(p.ID(), fmt.Sprintf("probe panicked: %v", r))
		}
		result.Cost = time.Since(start)
	}()

	e.logger.Debug("running probe", "probe", p.ID())
	result, err := p.Run(ctx)
	if err != nil {
		e.logger.Warn("probe inconclusive", "probe", p.ID(), "error", err)
		return model.Inconclusive(p.ID(), err.Error())
	}
	e.logger.Debug("probe finished",
		"probe", p.ID(),
		"outcome", result.Outcome.String(),
	)
	return result
}
