package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/metrics"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(collector *metrics.Collector, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, progressLine(p.collector.Stats(p.collector.Elapsed()), p.collector.Latest()))
		case <-p.done:
			return
		}
	}
}

func progressLine(stats metrics.Stats, latest []bench.Run) string {
	line := fmt.Sprintf("\rRepetitions: %d/%d (%.0f%%) | Benchmarks: %d/%d | Skipped: %d | Reps/s: %.1f",
		stats.Repetitions, stats.PlannedRepetitions, stats.Progress()*100,
		stats.Instances, stats.PlannedInstances, stats.Skipped, stats.RepetitionsPerSec)
	if len(latest) > 0 {
		line += fmt.Sprintf(" | Last: %s", latest[0].Name.String())
	}
	return line
}
