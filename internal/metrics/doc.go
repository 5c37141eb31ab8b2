// Package metrics tracks the progress of a benchmark run while it executes.
//
// The [Collector] implements runner.Observer. It counts finished
// repetitions and instances, tallies skip reasons, and keeps an HDR
// histogram of the per-iteration time of every repetition so the spread
// across repetitions can be shown live:
//
//	collector := metrics.NewCollector()
//	r := runner.New(runner.Options{Observer: collector, ...})
//
//	// From another goroutine (progress line, dashboard):
//	stats := collector.Stats(collector.Elapsed())
//	fmt.Println(stats.Progress())
//
// The Collector is safe for concurrent use.
package metrics
