// Package runner provides the benchmark execution engine for crankbench.
//
// The runner package decides how many iterations a benchmark needs and
// coordinates its execution:
//   - Warmup and iteration search per repetition (the adaptive controller)
//   - Multi-threaded probes aligned by a start/stop barrier
//   - Repetitions, optionally interleaved across instances with a seeded shuffle
//   - Aggregates over repetitions and complexity fits over families
//   - Repetition pacing (repetitions per second)
//
// # Basic Usage
//
// Expand a registry into instances and hand them to a runner together with
// the reporters that should receive the results:
//
//	insts, err := reg.Instances(".")
//	r := runner.New(runner.Options{
//		MinTime:     0.5,
//		Repetitions: 3,
//		Display:     consoleReporter,
//	})
//	result, err := r.Run(ctx, insts)
//
// # Iteration Search
//
// A probe runs the workload for a fixed iteration count on every thread.
// While the probe's elapsed time is below the current threshold (the warmup
// time during warmup, the minimum time afterwards) the next count is
// predicted to land 40% past the threshold, growing by at most 10x for very
// short probes and never beyond [MaxIterations]. Only the first repetition
// searches; later repetitions reuse its count.
//
// # Reporters
//
// A [Reporter] receives the run [Context] once, then for each instance the
// per-repetition runs followed by the aggregates. Reporters configured for
// aggregates only still receive the raw runs when nothing was aggregated.
package runner
