package bench

import (
	"fmt"

	"github.com/torosent/crankbench/internal/counters"
	"github.com/torosent/crankbench/internal/threads"
	"github.com/torosent/crankbench/internal/timer"
)

// State is the per-thread handle a workload uses to drive its loop and
// report extra data. It is not safe for concurrent use.
type State struct {
	// Counters holds user counters. They are summed across threads and
	// finished according to their flags.
	Counters counters.Set

	maxIterations   int64
	totalIterations int64
	batchLeftover   int64

	started  bool
	finished bool

	skipped     Skipped
	skipMessage string

	labelFormat string
	labelValue  float64

	complexityN int64

	args        []int64
	threadIndex int
	threads     int

	timer   *timer.Timer
	manager *threads.Manager
}

// NewState prepares the state for one thread of a probe.
func NewState(maxIters int64, args []int64, threadIndex, threadCount int, t *timer.Timer, m *threads.Manager) *State {
	if maxIters < 1 {
		panic(fmt.Sprintf("bench: iteration count must be >= 1, got %d", maxIters))
	}
	if threadIndex < 0 || threadIndex >= threadCount {
		panic(fmt.Sprintf("bench: thread index %d out of range [0,%d)", threadIndex, threadCount))
	}
	return &State{
		Counters:      counters.Set{},
		maxIterations: maxIters,
		args:          args,
		threadIndex:   threadIndex,
		threads:       threadCount,
		timer:         t,
		manager:       m,
	}
}

// KeepRunning reports whether another iteration should run. The first call
// starts timing after every thread is ready; the call that returns false
// stops timing and waits for the other threads.
func (s *State) KeepRunning() bool {
	return s.keepRunning(1, false)
}

// KeepRunningBatch consumes n iterations at a time. The final batch may be
// shorter than requested; the surplus is still counted as run.
func (s *State) KeepRunningBatch(n int64) bool {
	return s.keepRunning(n, true)
}

func (s *State) keepRunning(n int64, batch bool) bool {
	if s.totalIterations >= n {
		s.totalIterations -= n
		return true
	}
	if !s.started {
		s.startKeepRunning()
		if s.skipped == NotSkipped && s.totalIterations >= n {
			s.totalIterations -= n
			return true
		}
	}
	if batch && s.totalIterations != 0 {
		s.batchLeftover = n - s.totalIterations
		s.totalIterations = 0
		return true
	}
	s.finishKeepRunning()
	return false
}

func (s *State) startKeepRunning() {
	if s.started || s.finished {
		panic("bench: KeepRunning restarted after the loop finished")
	}
	s.started = true
	if s.skipped == NotSkipped {
		s.totalIterations = s.maxIterations
	}
	s.manager.StartStopBarrier()
	if s.skipped == NotSkipped {
		s.ResumeTiming()
	}
}

func (s *State) finishKeepRunning() {
	if !s.started || (s.finished && s.skipped == NotSkipped) {
		panic("bench: KeepRunning called after it returned false")
	}
	if s.skipped == NotSkipped {
		s.PauseTiming()
	}
	s.totalIterations = 0
	s.finished = true
	s.manager.StartStopBarrier()
}

// Drain passes the barriers a skipped thread left behind by returning
// early, so sibling threads are not left waiting.
func (s *State) Drain() {
	if s.skipped == NotSkipped || s.finished {
		return
	}
	if !s.started {
		s.startKeepRunning()
	}
	s.finishKeepRunning()
}

// PauseTiming stops the clock inside the loop.
func (s *State) PauseTiming() {
	if !s.started || s.finished || s.skipped != NotSkipped {
		panic("bench: PauseTiming outside a running loop")
	}
	s.timer.Stop()
}

// ResumeTiming restarts the clock inside the loop.
func (s *State) ResumeTiming() {
	if !s.started || s.finished || s.skipped != NotSkipped {
		panic("bench: ResumeTiming outside a running loop")
	}
	s.timer.Start()
}

// SkipWithMessage stops the run and reports it as skipped. Only the first
// skip is kept.
func (s *State) SkipWithMessage(msg string) {
	s.skip(SkippedWithMessage, msg)
}

// SkipWithError stops the run and reports it as failed.
func (s *State) SkipWithError(msg string) {
	s.skip(SkippedWithError, msg)
}

func (s *State) skip(kind Skipped, msg string) {
	if s.skipped == NotSkipped {
		s.skipped = kind
		s.skipMessage = msg
	}
	s.totalIterations = 0
	if s.timer.Running() {
		s.timer.Stop()
	}
}

// SetIterationTime records externally measured seconds for one iteration.
func (s *State) SetIterationTime(seconds float64) {
	s.timer.SetIterationTime(seconds)
}

// SetBytesProcessed reports bytes handled; shown as a rate.
func (s *State) SetBytesProcessed(n int64) {
	s.Counters["bytes_per_second"] = counters.Counter{Value: float64(n), Flags: counters.IsRate, OneK: counters.OneK1024}
}

// SetItemsProcessed reports items handled; shown as a rate.
func (s *State) SetItemsProcessed(n int64) {
	s.Counters["items_per_second"] = counters.New(float64(n), counters.IsRate)
}

// SetCounter stores a named counter.
func (s *State) SetCounter(name string, value float64, flags counters.Flags) {
	s.Counters[name] = counters.New(value, flags)
}

// SetComplexityN declares the problem size for complexity fitting.
func (s *State) SetComplexityN(n int64) { s.complexityN = n }

// SetLabel attaches a numeric label rendered with format.
func (s *State) SetLabel(format string, value float64) {
	s.labelFormat = format
	s.labelValue = value
}

// Range returns argument i of the instance.
func (s *State) Range(i int) int64 {
	if i < 0 || i >= len(s.args) {
		panic(fmt.Sprintf("bench: Range(%d) with %d arguments", i, len(s.args)))
	}
	return s.args[i]
}

func (s *State) Threads() int             { return s.threads }
func (s *State) ThreadIndex() int         { return s.threadIndex }
func (s *State) MaxIterations() int64     { return s.maxIterations }
func (s *State) Skipped() Skipped         { return s.skipped }
func (s *State) SkipMessage() string      { return s.skipMessage }
func (s *State) ComplexityN() int64       { return s.complexityN }
func (s *State) Started() bool            { return s.started }
func (s *State) Label() (string, float64) { return s.labelFormat, s.labelValue }

// Iterations returns the iterations run so far.
func (s *State) Iterations() int64 {
	if !s.started {
		return 0
	}
	return s.maxIterations - s.totalIterations + s.batchLeftover
}
