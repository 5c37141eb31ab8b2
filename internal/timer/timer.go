// Package timer accumulates the real, cpu and manual time measured by one
// benchmark thread.
package timer

import (
	"fmt"
	"time"
)

// Timer is owned by exactly one benchmark thread. Accumulated values are
// only readable while the timer is stopped.
type Timer struct {
	src        TimeSource
	processCPU bool

	running   bool
	startReal time.Duration
	startCPU  time.Duration

	realUsed   float64
	cpuUsed    float64
	manualUsed float64
}

// New returns a stopped timer. When processCPU is set the cpu clock covers
// the whole process instead of the calling thread.
func New(src TimeSource, processCPU bool) *Timer {
	if src == nil {
		src = NewSystem()
	}
	return &Timer{src: src, processCPU: processCPU}
}

// Start records the current wall and cpu readings.
func (t *Timer) Start() {
	if t.running {
		panic("timer: Start called while running")
	}
	t.running = true
	t.startReal = t.src.Now()
	t.startCPU = t.readCPU()
}

// Stop adds the elapsed wall and cpu time since Start to the totals.
// A negative cpu delta is dropped rather than subtracted.
func (t *Timer) Stop() {
	if !t.running {
		panic("timer: Stop called while stopped")
	}
	t.running = false
	t.realUsed += (t.src.Now() - t.startReal).Seconds()
	if delta := (t.readCPU() - t.startCPU).Seconds(); delta > 0 {
		t.cpuUsed += delta
	}
}

// SetIterationTime adds externally measured seconds to the manual total.
func (t *Timer) SetIterationTime(seconds float64) {
	t.manualUsed += seconds
}

func (t *Timer) Running() bool { return t.running }

func (t *Timer) RealTimeUsed() float64 {
	t.mustBeStopped("RealTimeUsed")
	return t.realUsed
}

func (t *Timer) CPUTimeUsed() float64 {
	t.mustBeStopped("CPUTimeUsed")
	return t.cpuUsed
}

func (t *Timer) ManualTimeUsed() float64 {
	t.mustBeStopped("ManualTimeUsed")
	return t.manualUsed
}

func (t *Timer) mustBeStopped(op string) {
	if t.running {
		panic(fmt.Sprintf("timer: %s read while running", op))
	}
}

func (t *Timer) readCPU() time.Duration {
	if t.processCPU {
		return t.src.ProcessCPU()
	}
	return t.src.ThreadCPU()
}
