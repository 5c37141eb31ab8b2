package workloads

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/torosent/crankbench/internal/alloc"
	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
)

// Sort sorts a shuffled slice of Range(0) ints. The refill is untimed.
func Sort() *bench.Benchmark {
	return bench.New("BM_Sort", func(st *bench.State, _ alloc.Allocator) {
		n := st.Range(0)
		data := make([]int, n)
		rng := rand.New(rand.NewPCG(uint64(n), uint64(st.ThreadIndex())))
		for st.KeepRunning() {
			st.PauseTiming()
			for i := range data {
				data[i] = rng.Int()
			}
			st.ResumeTiming()
			slices.Sort(data)
		}
		st.SetComplexityN(n)
		st.SetItemsProcessed(st.Iterations() * n)
	}).Arg(1 << 8).Arg(1 << 10).Arg(1 << 12).Arg(1 << 14).Complexity(bench.ONLogN)
}

// MapInsert fills a fresh map with Range(0) keys per iteration.
func MapInsert() *bench.Benchmark {
	return bench.New("BM_MapInsert", func(st *bench.State, _ alloc.Allocator) {
		n := st.Range(0)
		var size int
		for st.KeepRunning() {
			m := make(map[int64]int64)
			for i := int64(0); i < n; i++ {
				m[i] = i
			}
			size = len(m)
		}
		st.SetItemsProcessed(st.Iterations() * n)
		st.SetCounter("keys", float64(size), counters.AvgThreads)
	}).Arg(64).Arg(4096).Threads(1).Threads(2)
}

// ChannelRoundTrip measures one send/receive pair through an unbuffered
// channel with manual timing, so only the round trip itself is counted.
func ChannelRoundTrip() *bench.Benchmark {
	return bench.New("BM_ChannelRoundTrip", func(st *bench.State, _ alloc.Allocator) {
		ping := make(chan struct{})
		pong := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for range ping {
				pong <- struct{}{}
			}
		}()
		for st.KeepRunning() {
			start := time.Now()
			ping <- struct{}{}
			<-pong
			st.SetIterationTime(time.Since(start).Seconds())
		}
		close(ping)
		<-done
	}).UseManualTime().Unit(bench.Microsecond)
}
