// Package engine orchestrates probe execution and verdict aggregation.
//
// # Purpose
//
// The engine resolves which probes apply to the current platform, runs
// them, and folds their results into a single report. It is the only
// package that decides scheduling; probes themselves are scheduling-
// agnostic.
//
// # Execution Model
//
// Probes run sequentially on one goroutine by default, in registry order.
// Sequential execution exists for the timing probe: it measures wall-clock
// time of a CPU-bound loop, and concurrent siblings would inflate the
// measurement into false positives. The optional concurrent mode keeps the
// guarantee by running timing-sensitive probes alone before the rest of
// the batch starts.
//
// # Fault Isolation
//
// A probe that returns an error or panics yields an Inconclusive result
// carrying the failure reason; the remaining probes still run. One broken
// host surface must not take down the whole detection run, because the
// verdict only needs a single positive probe.
//
// # Usage
//
//	eng, err := engine.New(engine.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	report := eng.Detect(ctx)
package engine
