package bench_test

import (
	"math"
	"sync"
	"testing"

	"github.com/torosent/crankbench/internal/alloc"
	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
	"github.com/torosent/crankbench/internal/threads"
	"github.com/torosent/crankbench/internal/timer"
)

func noop(st *bench.State, _ alloc.Allocator) {
	for st.KeepRunning() {
	}
}

func newState(iters int64, args ...int64) *bench.State {
	return bench.NewState(iters, args, 0, 1, timer.New(nil, false), threads.New(1))
}

func TestInstanceNames(t *testing.T) {
	tests := []struct {
		name string
		b    *bench.Benchmark
		want []string
	}{
		{
			name: "plain",
			b:    bench.New("BM_Plain", noop),
			want: []string{"BM_Plain"},
		},
		{
			name: "args and threads",
			b:    bench.New("BM_Args", noop).Args(1, 2).Args(3, 4).Threads(1).Threads(4),
			want: []string{"BM_Args/1/2/threads:1", "BM_Args/1/2/threads:4", "BM_Args/3/4/threads:1", "BM_Args/3/4/threads:4"},
		},
		{
			name: "named args",
			b:    bench.New("BM_Named", noop).ArgNames("size", "").Args(8, 2),
			want: []string{"BM_Named/size:8/2"},
		},
		{
			name: "settings",
			b:    bench.New("BM_Set", noop).MinTime(0.25).Iterations(10).Repetitions(3).MeasureProcessCPUTime().UseRealTime(),
			want: []string{"BM_Set/min_time:0.250/iterations:10/repeats:3/process_time/real_time"},
		},
		{
			name: "manual time",
			b:    bench.New("BM_Manual", noop).UseManualTime().MinWarmupTime(0),
			want: []string{"BM_Manual/min_warmup_time:0.000/manual_time"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insts := tt.b.Instances(3)
			if len(insts) != len(tt.want) {
				t.Fatalf("got %d instances, want %d", len(insts), len(tt.want))
			}
			for i, inst := range insts {
				if got := inst.String(); got != tt.want[i] {
					t.Errorf("instance %d = %q, want %q", i, got, tt.want[i])
				}
				if inst.FamilyIndex != 3 || inst.PerFamilyInstanceIndex != i {
					t.Errorf("instance %d indices = %d/%d", i, inst.FamilyIndex, inst.PerFamilyInstanceIndex)
				}
			}
		})
	}
}

func TestKeepRunningCountsIterations(t *testing.T) {
	st := newState(5)
	n := 0
	for st.KeepRunning() {
		n++
	}
	if n != 5 || st.Iterations() != 5 {
		t.Fatalf("loop ran %d times, Iterations() = %d, want 5", n, st.Iterations())
	}
	res := bench.Collect(st, alloc.Stats{})
	if res.Iterations != 5 {
		t.Fatalf("Collect().Iterations = %d", res.Iterations)
	}
}

func TestKeepRunningBatchCountsLeftover(t *testing.T) {
	st := newState(10)
	batches := 0
	for st.KeepRunningBatch(4) {
		batches++
	}
	if batches != 3 {
		t.Fatalf("batches = %d, want 3", batches)
	}
	if st.Iterations() != 12 {
		t.Fatalf("Iterations() = %d, want 12", st.Iterations())
	}
}

func TestSkipStopsLoopAndKeepsFirstMessage(t *testing.T) {
	st := newState(100)
	n := 0
	for st.KeepRunning() {
		n++
		if n == 3 {
			st.SkipWithError("boom")
			st.SkipWithMessage("ignored")
		}
	}
	if n != 3 {
		t.Fatalf("loop ran %d times after skip, want 3", n)
	}
	if st.Skipped() != bench.SkippedWithError || st.SkipMessage() != "boom" {
		t.Fatalf("skip = %v %q", st.Skipped(), st.SkipMessage())
	}
}

func TestSkipBeforeLoopNeverStartsTimer(t *testing.T) {
	st := newState(100)
	st.SkipWithMessage("unsupported")
	if st.KeepRunning() {
		t.Fatal("KeepRunning() = true after skip")
	}
	res := bench.Collect(st, alloc.Stats{})
	if res.RealTimeUsed != 0 || res.Skipped != bench.SkippedWithMessage {
		t.Fatalf("result = %+v", res)
	}
}

func TestDrainReleasesSiblingThreads(t *testing.T) {
	m := threads.New(2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer m.NotifyThreadComplete()
		st := bench.NewState(10, nil, 1, 2, timer.New(nil, false), m)
		for st.KeepRunning() {
		}
	}()

	st := bench.NewState(10, nil, 0, 2, timer.New(nil, false), m)
	st.SkipWithMessage("early")
	st.Drain()
	m.NotifyThreadComplete()
	m.WaitForAllThreads()
	wg.Wait()
}

func TestSetBytesAndItemsProcessed(t *testing.T) {
	st := newState(1)
	st.SetBytesProcessed(2048)
	st.SetItemsProcessed(10)
	if c := st.Counters["bytes_per_second"]; c.Flags != counters.IsRate || c.OneK != counters.OneK1024 || c.Value != 2048 {
		t.Errorf("bytes counter = %+v", c)
	}
	if c := st.Counters["items_per_second"]; c.Flags != counters.IsRate || c.OneK != counters.OneK1000 {
		t.Errorf("items counter = %+v", c)
	}
}

func TestRangePanicsOutOfBounds(t *testing.T) {
	st := newState(1, 42)
	if st.Range(0) != 42 {
		t.Fatalf("Range(0) = %d", st.Range(0))
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for Range(1)")
		}
	}()
	st.Range(1)
}

func TestThreadResultMerge(t *testing.T) {
	a := bench.ThreadResult{Iterations: 10, RealTimeUsed: 1, ComplexityN: 5, Counters: counters.Set{"x": counters.New(1, 0)}}
	b := bench.ThreadResult{Iterations: 10, RealTimeUsed: 3, ComplexityN: 5, Counters: counters.Set{"x": counters.New(2, 0)},
		Skipped: bench.SkippedWithMessage, SkipMessage: "m", LabelFormat: "%.0f", LabelValue: 7}
	a.Merge(b)
	if a.Iterations != 20 || a.RealTimeUsed != 4 || a.ComplexityN != 10 {
		t.Fatalf("merged = %+v", a)
	}
	if a.Counters["x"].Value != 3 {
		t.Fatalf("counter = %v", a.Counters["x"].Value)
	}
	if a.Skipped != bench.SkippedWithMessage || a.SkipMessage != "m" || a.LabelFormat != "%.0f" {
		t.Fatalf("skip/label not merged: %+v", a)
	}
}

func TestRunAdjustedTimes(t *testing.T) {
	r := bench.Run{
		Name:                bench.Name{FunctionName: "BM_X", Args: "8"},
		Type:                bench.RunAggregate,
		AggregateName:       "mean",
		Iterations:          1000,
		TimeUnit:            bench.Microsecond,
		RealAccumulatedTime: 0.002,
		CPUAccumulatedTime:  0.001,
		LabelFormat:         "n=%.0f",
		LabelValue:          8,
	}
	if got := r.AdjustedRealTime(); math.Abs(got-2) > 1e-9 {
		t.Errorf("AdjustedRealTime() = %v, want 2", got)
	}
	if got := r.AdjustedCPUTime(); math.Abs(got-1) > 1e-9 {
		t.Errorf("AdjustedCPUTime() = %v, want 1", got)
	}
	if got := r.BenchmarkName(); got != "BM_X/8_mean" {
		t.Errorf("BenchmarkName() = %q", got)
	}
	if got := r.Label(); got != "n=8" {
		t.Errorf("Label() = %q", got)
	}

	r.Iterations = 0
	if got := r.AdjustedRealTime(); math.Abs(got-2000) > 1e-9 {
		t.Errorf("AdjustedRealTime() with zero iterations = %v, want 2000", got)
	}
}

func TestParseTimeUnit(t *testing.T) {
	for in, want := range map[string]bench.TimeUnit{"ns": bench.Nanosecond, "US": bench.Microsecond, "ms": bench.Millisecond, " s ": bench.Second} {
		got, err := bench.ParseTimeUnit(in)
		if err != nil || got != want {
			t.Errorf("ParseTimeUnit(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := bench.ParseTimeUnit("min"); err == nil {
		t.Error("ParseTimeUnit(min) succeeded")
	}
}
