// Package threads coordinates the worker threads of one benchmark probe.
package threads

import (
	"fmt"
	"sync"
)

// Manager aligns N participants at the start and end of the measured window
// and lets the orchestrator wait until every participant has finished.
//
// Every participant must call NotifyThreadComplete exactly once, including on
// early exit. Missing a call deadlocks WaitForAllThreads.
type Manager struct {
	mu   sync.Mutex
	cond *sync.Cond

	total      int
	alive      int
	entered    int
	generation uint64
	done       chan struct{}
}

// New returns a Manager for n participants.
func New(n int) *Manager {
	if n < 1 {
		panic(fmt.Sprintf("threads: participant count must be >= 1, got %d", n))
	}
	m := &Manager{total: n, alive: n, done: make(chan struct{})}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Threads returns the participant count.
func (m *Manager) Threads() int { return m.total }

// StartStopBarrier blocks until all participants have called it for the
// current generation. It reports true to exactly one caller, the last to
// arrive.
func (m *Manager) StartStopBarrier() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.alive != m.total {
		panic("threads: barrier entered after a participant completed")
	}

	gen := m.generation
	m.entered++
	if m.entered == m.total {
		m.entered = 0
		m.generation++
		m.cond.Broadcast()
		return true
	}
	for gen == m.generation {
		m.cond.Wait()
	}
	return false
}

// NotifyThreadComplete marks one participant finished. The last one releases
// WaitForAllThreads.
func (m *Manager) NotifyThreadComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.alive == 0 {
		panic("threads: more completions than participants")
	}
	m.alive--
	if m.alive == 0 {
		close(m.done)
	}
}

// WaitForAllThreads blocks until every participant has completed.
func (m *Manager) WaitForAllThreads() {
	<-m.done
}

// Done is closed once every participant has completed.
func (m *Manager) Done() <-chan struct{} { return m.done }
