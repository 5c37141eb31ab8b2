package runner

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/torosent/crankbench/internal/alloc"
	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/pool"
	"github.com/torosent/crankbench/internal/threads"
	"github.com/torosent/crankbench/internal/timer"
)

// iterationResult is the merged outcome of one probe.
type iterationResult struct {
	results bench.ThreadResult
	iters   int64   // iterations each thread actually ran
	seconds float64 // the clock the benchmark is judged by
}

// doNIterations runs the instance for iters iterations on every thread.
// Thread 0 runs on the calling goroutine; the others are spawned for this
// probe only and joined before the results are merged.
func (r *instanceRunner) doNIterations(iters int64) iterationResult {
	n := r.inst.Threads
	mgr := threads.New(n)
	perThread := make([]bench.ThreadResult, n)

	var wg sync.WaitGroup
	wg.Add(n - 1)
	for ti := 1; ti < n; ti++ {
		go func(ti int) {
			defer wg.Done()
			perThread[ti] = r.runInThread(iters, ti, mgr)
		}(ti)
	}
	perThread[0] = r.runInThread(iters, 0, mgr)

	mgr.WaitForAllThreads()
	wg.Wait()

	merged := perThread[0]
	for _, res := range perThread[1:] {
		merged.Merge(res)
	}

	// Every thread measured the same wall-clock window.
	threadCount := float64(n)
	merged.RealTimeUsed /= threadCount
	merged.ManualTimeUsed /= threadCount
	if r.inst.MeasureProcessCPUTime() {
		merged.CPUTimeUsed /= threadCount
	}

	// KeepRunningBatch may overshoot the request, so the search continues
	// from what ran.
	res := iterationResult{results: merged, iters: merged.Iterations / int64(n), seconds: merged.CPUTimeUsed}
	switch {
	case r.inst.UseManualTime():
		res.seconds = merged.ManualTimeUsed
	case r.inst.UseRealTime():
		res.seconds = merged.RealTimeUsed
	}
	return res
}

// runInThread executes one thread's share of a probe. The thread is pinned
// to its OS thread so the per-thread cpu clock stays meaningful.
func (r *instanceRunner) runInThread(iters int64, threadIndex int, mgr *threads.Manager) bench.ThreadResult {
	defer mgr.NotifyThreadComplete()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	scratch := r.acquireScratch()
	defer r.releaseScratch(scratch)

	t := timer.New(r.src, r.inst.MeasureProcessCPUTime())
	st := bench.NewState(iters, r.inst.Args, threadIndex, r.inst.Threads, t, mgr)
	r.inst.Run(st, scratch)
	st.Drain()

	if st.Skipped() == bench.NotSkipped && st.Iterations() < st.MaxIterations() {
		panic(fmt.Sprintf("runner: %s returned before KeepRunning reported false (%d of %d iterations)",
			r.inst, st.Iterations(), st.MaxIterations()))
	}
	return bench.Collect(st, scratch.Stats())
}

func (r *instanceRunner) acquireScratch() *alloc.Scratch {
	size := r.inst.MemoryRequired()
	item, _ := r.pool.Get(pool.ScratchKey(size), func() pool.Poolable {
		return alloc.NewScratch(size)
	})
	return item.(*alloc.Scratch)
}

func (r *instanceRunner) releaseScratch(s *alloc.Scratch) {
	r.pool.Put(pool.ScratchKey(s.Cap()), s)
}
