package timer

import "time"

// TimeSource reports elapsed wall-clock time and consumed cpu time.
// Readings are only compared with other readings from the same source.
type TimeSource interface {
	Now() time.Duration
	ThreadCPU() time.Duration
	ProcessCPU() time.Duration
}

// System reads the monotonic clock and the kernel's cpu-time clocks.
type System struct {
	base time.Time
}

// NewSystem returns a TimeSource anchored at the current instant.
func NewSystem() *System {
	return &System{base: time.Now()}
}

func (s *System) Now() time.Duration {
	return time.Since(s.base)
}

// ThreadCPU returns cpu time consumed by the calling OS thread. Callers
// that need a stable reading pin their goroutine with runtime.LockOSThread.
func (s *System) ThreadCPU() time.Duration {
	return threadCPU(s.base)
}

func (s *System) ProcessCPU() time.Duration {
	return processCPU(s.base)
}
