package workloads

import (
	"fmt"

	"github.com/torosent/crankbench/internal/alloc"
	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
)

// HeapAlloc allocates and frees Range(0) bytes through a counting heap.
func HeapAlloc() *bench.Benchmark {
	return bench.New("BM_HeapAlloc", func(st *bench.State, _ alloc.Allocator) {
		size := int(st.Range(0))
		heap := alloc.NewHeap()
		for st.KeepRunning() {
			b, err := heap.Alloc(size)
			if err != nil {
				st.SkipWithError(err.Error())
				break
			}
			b.Bytes[0] = 1
			if err := heap.Free(b.Handle); err != nil {
				st.SkipWithError(err.Error())
				break
			}
		}
		st.SetBytesProcessed(st.Iterations() * int64(size))
		st.SetCounter("peak_bytes", float64(heap.Stats().PeakBytes), counters.AvgThreads)
	}).Arg(64).Arg(4096)
}

// ArenaCheckout writes a record into an arena through a checkout and
// commits only the bytes used. The arena rewinds once the block is freed.
func ArenaCheckout() *bench.Benchmark {
	return bench.New("BM_ArenaCheckout", func(st *bench.State, _ alloc.Allocator) {
		arena := alloc.NewArena(64 << 10)
		limit := int(st.Range(0))
		for st.KeepRunning() {
			buf, err := arena.Checkout(limit)
			if err != nil {
				st.SkipWithError(err.Error())
				break
			}
			n := copy(buf, "crankbench")
			b, err := arena.Commit(n)
			if err != nil {
				st.SkipWithError(err.Error())
				break
			}
			if err := arena.Free(b.Handle); err != nil {
				st.SkipWithError(err.Error())
				break
			}
		}
		st.SetItemsProcessed(st.Iterations())
	}).Arg(256).Arg(8192)
}

// ScratchScopes uses the thread's scratch allocator: each iteration opens
// Range(0) nested scopes, allocates a block in each and unwinds them.
func ScratchScopes() *bench.Benchmark {
	return bench.New("BM_ScratchScopes", func(st *bench.State, a alloc.Allocator) {
		scratch, ok := a.(*alloc.Scratch)
		if !ok {
			st.SkipWithMessage(fmt.Sprintf("allocator %T has no scopes", a))
			return
		}
		depth := int(st.Range(0))
		handles := make([]alloc.Handle, depth)
		for st.KeepRunning() {
			if err := scopes(scratch, handles); err != nil {
				st.SkipWithError(err.Error())
				break
			}
		}
		st.SetCounter("scopes", float64(depth), counters.IsIterationInvariantRate)
	}).Arg(1).Arg(8).MemoryRequired(64 << 10)
}

func scopes(s *alloc.Scratch, handles []alloc.Handle) error {
	for i := range handles {
		if err := s.PushScope(); err != nil {
			return err
		}
		b, err := s.Alloc(64)
		if err != nil {
			return err
		}
		handles[i] = b.Handle
	}
	for i := len(handles) - 1; i >= 0; i-- {
		if err := s.Free(handles[i]); err != nil {
			return err
		}
		if err := s.PopScope(); err != nil {
			return err
		}
	}
	return nil
}
