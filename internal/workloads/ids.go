package workloads

import (
	"math/rand/v2"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/oklog/ulid/v2"

	"github.com/torosent/crankbench/internal/alloc"
	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
)

// ULIDNew generates run identifiers from the shared monotonic entropy
// source, contended across Threads.
func ULIDNew() *bench.Benchmark {
	return bench.New("BM_ULIDNew", func(st *bench.State, _ alloc.Allocator) {
		var last ulid.ULID
		for st.KeepRunning() {
			last = ulid.Make()
		}
		if last == (ulid.ULID{}) {
			st.SkipWithError("zero ulid")
			return
		}
		st.SetItemsProcessed(st.Iterations())
	}).Threads(1).Threads(4).Unit(bench.Nanosecond)
}

// HistogramRecord records Range(0) latencies per iteration into a histogram
// configured like the metrics collector's.
func HistogramRecord() *bench.Benchmark {
	return bench.New("BM_HistogramRecord", func(st *bench.State, _ alloc.Allocator) {
		n := st.Range(0)
		values := make([]int64, n)
		rng := rand.New(rand.NewPCG(1, uint64(n)))
		for i := range values {
			values[i] = 1 + rng.Int64N(10_000_000)
		}
		h := hdrhistogram.New(1, 60_000_000_000, 3)
		for st.KeepRunning() {
			for _, v := range values {
				if err := h.RecordValue(v); err != nil {
					st.SkipWithError(err.Error())
					return
				}
			}
		}
		st.SetItemsProcessed(st.Iterations() * n)
		st.SetCounter("p99_ns", float64(h.ValueAtQuantile(99)), counters.Defaults)
		st.SetComplexityN(n)
	}).Arg(64).Arg(1024).Arg(16384).Complexity(bench.ON)
}
