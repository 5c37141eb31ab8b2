package metrics_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/metrics"
)

func repetition(name string, secondsPerIter float64) bench.Run {
	return bench.Run{
		Name:                bench.Name{FunctionName: name},
		Iterations:          1000,
		TimeUnit:            bench.Nanosecond,
		RealAccumulatedTime: secondsPerIter * 1000,
	}
}

func TestCollectorBenchmarkDistribution(t *testing.T) {
	c := metrics.NewCollector()
	c.Begin(1, 100)

	// 100 repetitions: 1µs, 2µs, ..., 100µs per iteration.
	for i := 1; i <= 100; i++ {
		c.RepetitionDone(repetition("BM_A", float64(i)*1e-6))
	}

	stats := c.Stats(time.Second)
	if stats.Repetitions != 100 {
		t.Fatalf("expected 100 repetitions, got %d", stats.Repetitions)
	}
	if stats.Progress() != 1 {
		t.Errorf("expected progress 1, got %v", stats.Progress())
	}
	if stats.RepetitionsPerSec != 100 {
		t.Errorf("expected 100 repetitions/s, got %v", stats.RepetitionsPerSec)
	}

	b, ok := stats.Benchmark("BM_A")
	if !ok {
		t.Fatal("BM_A missing from stats")
	}
	if b.Repetitions != 100 {
		t.Errorf("expected 100 samples, got %d", b.Repetitions)
	}
	if b.MinNs < 999 || b.MinNs > 1001 {
		t.Errorf("expected min ~1000ns, got %v", b.MinNs)
	}
	if b.MaxNs < 99_999 || b.MaxNs > 100_001 {
		t.Errorf("expected max ~100000ns, got %v", b.MaxNs)
	}
	if b.MeanNs < 50_400 || b.MeanNs > 50_600 {
		t.Errorf("expected mean ~50500ns, got %v", b.MeanNs)
	}
	if b.P50Ns < 49_000 || b.P50Ns > 51_000 {
		t.Errorf("expected P50 ~50µs, got %v", b.P50Ns)
	}
	if b.P99Ns < 98_000 || b.P99Ns > 100_100 {
		t.Errorf("expected P99 ~99µs, got %v", b.P99Ns)
	}
}

func TestCollectorSkips(t *testing.T) {
	c := metrics.NewCollector()
	c.Begin(2, 3)

	skipped := repetition("BM_S", 1e-6)
	skipped.Skipped = bench.SkippedWithMessage
	skipped.SkipMessage = "unsupported"
	failed := repetition("BM_F", 1e-6)
	failed.Skipped = bench.SkippedWithError
	failed.SkipMessage = "boom"

	c.RepetitionDone(skipped)
	c.RepetitionDone(skipped)
	c.RepetitionDone(failed)

	stats := c.Stats(0)
	if stats.Skipped != 3 || stats.Failed != 1 {
		t.Fatalf("skipped=%d failed=%d", stats.Skipped, stats.Failed)
	}
	if len(stats.Benchmarks) != 0 {
		t.Errorf("skipped runs should not be sampled, got %d series", len(stats.Benchmarks))
	}
	if len(stats.SkipReasons) != 2 || stats.SkipReasons[0].Message != "unsupported" || stats.SkipReasons[0].Count != 2 {
		t.Errorf("skip reasons = %+v", stats.SkipReasons)
	}
}

func TestCollectorLatest(t *testing.T) {
	c := metrics.NewCollector()
	c.InstanceDone([]bench.Run{repetition("BM_A", 1e-6)})
	c.InstanceDone([]bench.Run{repetition("BM_B", 1e-6), repetition("BM_B", 2e-6)})

	latest := c.Latest()
	if len(latest) != 2 || latest[0].Name.FunctionName != "BM_B" {
		t.Fatalf("latest = %+v", latest)
	}
	if c.Stats(0).Instances != 2 {
		t.Errorf("instances = %d", c.Stats(0).Instances)
	}
}

func TestCollectorConcurrentReads(t *testing.T) {
	c := metrics.NewCollector()
	c.Begin(1, 200)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.RepetitionDone(repetition("BM_C", 1e-6))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = c.Stats(c.Elapsed())
		}
	}()
	wg.Wait()

	if got := c.Stats(0).Repetitions; got != 200 {
		t.Fatalf("expected 200 repetitions, got %d", got)
	}
}

func TestStatsJSON(t *testing.T) {
	c := metrics.NewCollector()
	c.RepetitionDone(repetition("BM_J", 1e-3))
	data, err := json.Marshal(c.Stats(2 * time.Second))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["duration_ms"].(float64) != 2000 {
		t.Errorf("duration_ms = %v", decoded["duration_ms"])
	}
	if _, ok := decoded["benchmarks"]; !ok {
		t.Error("benchmarks missing from JSON")
	}
}
