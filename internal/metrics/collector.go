package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/crankbench/internal/bench"
)

// Collector tracks run progress and the spread of per-repetition timings.
// It implements runner.Observer and is safe to read while a run is going.
type Collector struct {
	mu sync.Mutex

	plannedInstances   int
	plannedRepetitions int
	repetitions        int64
	instances          int64
	skipped            int64
	failed             int64
	skipReasons        map[string]map[string]int

	benchmarks map[string]*benchmarkSeries
	order      []string
	latest     []bench.Run
	start      time.Time
}

type benchmarkSeries struct {
	hist *hdrhistogram.Histogram
	unit bench.TimeUnit
	sum  float64
	min  float64
	max  float64
}

// BenchmarkStats summarizes the repetitions of one instance. Times are per
// iteration, in nanoseconds.
type BenchmarkStats struct {
	Name        string  `json:"name"`
	Repetitions int64   `json:"repetitions"`
	Unit        string  `json:"time_unit"`
	MinNs       float64 `json:"min_ns"`
	MaxNs       float64 `json:"max_ns"`
	MeanNs      float64 `json:"mean_ns"`
	P50Ns       float64 `json:"p50_ns"`
	P90Ns       float64 `json:"p90_ns"`
	P99Ns       float64 `json:"p99_ns"`
}

// Stats represents aggregated progress.
type Stats struct {
	PlannedInstances   int              `json:"planned_instances"`
	PlannedRepetitions int              `json:"planned_repetitions"`
	Repetitions        int64            `json:"repetitions"`
	Instances          int64            `json:"instances"`
	Skipped            int64            `json:"skipped"`
	Failed             int64            `json:"failed"`
	Duration           time.Duration    `json:"-"`
	DurationMs         float64          `json:"duration_ms"`
	RepetitionsPerSec  float64          `json:"repetitions_per_sec"`
	Benchmarks         []BenchmarkStats `json:"benchmarks,omitempty"`
	SkipReasons        []SkipBucket     `json:"skip_reasons,omitempty"`
}

// Progress returns the completed fraction in [0,1].
func (s Stats) Progress() float64 {
	if s.PlannedRepetitions == 0 {
		return 0
	}
	return float64(s.Repetitions) / float64(s.PlannedRepetitions)
}

func NewCollector() *Collector {
	return &Collector{
		skipReasons: make(map[string]map[string]int),
		benchmarks:  make(map[string]*benchmarkSeries),
		start:       time.Now(),
	}
}

// Begin records the size of the run and restarts the clock.
func (c *Collector) Begin(instances, repetitions int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plannedInstances = instances
	c.plannedRepetitions = repetitions
	c.start = time.Now()
}

// RepetitionDone records one finished repetition.
func (c *Collector) RepetitionDone(run bench.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repetitions++
	if run.Skipped != bench.NotSkipped {
		c.skipped++
		kind := "skipped"
		if run.Skipped == bench.SkippedWithError {
			c.failed++
			kind = "error"
		}
		if c.skipReasons[kind] == nil {
			c.skipReasons[kind] = make(map[string]int)
		}
		c.skipReasons[kind][run.SkipMessage]++
		return
	}
	if run.Iterations == 0 {
		return
	}

	name := run.BenchmarkName()
	s, ok := c.benchmarks[name]
	if !ok {
		// Track per-iteration times from 1ns up to 60s with 3 significant figures.
		s = &benchmarkSeries{hist: hdrhistogram.New(1, 60_000_000_000, 3), unit: run.TimeUnit}
		c.benchmarks[name] = s
		c.order = append(c.order, name)
	}
	ns := run.RealAccumulatedTime * 1e9 / float64(run.Iterations)
	v := int64(ns)
	if v < s.hist.LowestTrackableValue() {
		v = s.hist.LowestTrackableValue()
	}
	if v > s.hist.HighestTrackableValue() {
		v = s.hist.HighestTrackableValue()
	}
	_ = s.hist.RecordValue(v)
	s.sum += ns
	if s.hist.TotalCount() == 1 || ns < s.min {
		s.min = ns
	}
	if ns > s.max {
		s.max = ns
	}
}

// InstanceDone keeps the runs reported for the most recent instance.
func (c *Collector) InstanceDone(runs []bench.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances++
	c.latest = append(c.latest[:0], runs...)
}

// Latest returns the runs of the most recently finished instance.
func (c *Collector) Latest() []bench.Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bench.Run(nil), c.latest...)
}

// Elapsed is the time since Begin.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		PlannedInstances:   c.plannedInstances,
		PlannedRepetitions: c.plannedRepetitions,
		Repetitions:        c.repetitions,
		Instances:          c.instances,
		Skipped:            c.skipped,
		Failed:             c.failed,
		Duration:           elapsed,
		DurationMs:         float64(elapsed) / float64(time.Millisecond),
	}
	if elapsed > 0 && c.repetitions > 0 {
		stats.RepetitionsPerSec = float64(c.repetitions) / elapsed.Seconds()
	}

	for _, name := range c.order {
		s := c.benchmarks[name]
		n := s.hist.TotalCount()
		stats.Benchmarks = append(stats.Benchmarks, BenchmarkStats{
			Name:        name,
			Repetitions: n,
			Unit:        s.unit.String(),
			MinNs:       s.min,
			MaxNs:       s.max,
			MeanNs:      s.sum / float64(n),
			P50Ns:       float64(s.hist.ValueAtQuantile(50)),
			P90Ns:       float64(s.hist.ValueAtQuantile(90)),
			P99Ns:       float64(s.hist.ValueAtQuantile(99)),
		})
	}
	stats.SkipReasons = FlattenSkipReasons(c.skipReasons)
	return stats
}

// Benchmark returns the summary for one benchmark name.
func (s Stats) Benchmark(name string) (BenchmarkStats, bool) {
	for _, b := range s.Benchmarks {
		if b.Name == name {
			return b, true
		}
	}
	return BenchmarkStats{}, false
}
