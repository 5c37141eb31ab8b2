// Package bench defines benchmarks and the records they produce.
//
// A [Benchmark] is declared once with a builder and expands into one
// [Instance] per argument tuple and thread count:
//
//	b := bench.New("BM_Sort", func(st *bench.State, a alloc.Allocator) {
//		data := make([]int, st.Range(0))
//		for st.KeepRunning() {
//			st.PauseTiming()
//			fill(data)
//			st.ResumeTiming()
//			sort.Ints(data)
//		}
//		st.SetComplexityN(st.Range(0))
//	}).Args(1<<10).Args(1<<12).Args(1<<14).Complexity(bench.ONLogN)
//
// # State
//
// Each thread of a probe receives its own [State]. The workload must loop on
// [State.KeepRunning] until it returns false, or skip with
// [State.SkipWithMessage] or [State.SkipWithError]. Returning early without
// skipping is a fatal error.
//
// # Records
//
// A [Run] is one reported measurement: either a single repetition
// ([RunIteration]) or an aggregate over repetitions or a family
// ([RunAggregate]). Accumulated times are totals over all iterations;
// [Run.AdjustedRealTime] and [Run.AdjustedCPUTime] convert them to time per
// iteration in the run's [TimeUnit].
package bench
