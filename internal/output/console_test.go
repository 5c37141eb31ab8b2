package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
	"github.com/torosent/crankbench/internal/runner"
)

func init() {
	_ = SetColor("never")
}

func testContext(width int) runner.Context {
	return runner.Context{
		RunID:          "01HZZZZZZZZZZZZZZZZZZZZZZZ",
		Date:           time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Host:           "box",
		NumCPUs:        8,
		GOOS:           "linux",
		GOARCH:         "amd64",
		GoVersion:      "go1.25.0",
		NameFieldWidth: width,
	}
}

func iterationRun(fn string, realSec, cpuSec float64, iters int64) bench.Run {
	return bench.Run{
		Name:                bench.Name{FunctionName: fn},
		Type:                bench.RunIteration,
		Iterations:          iters,
		Threads:             1,
		Repetitions:         1,
		TimeUnit:            bench.Nanosecond,
		RealAccumulatedTime: realSec,
		CPUAccumulatedTime:  cpuSec,
	}
}

func TestConsoleReporterLines(t *testing.T) {
	withCounter := iterationRun("BM_Copy", 0.001, 0.001, 1000)
	withCounter.Counters = counters.Set{"bytes_per_second": {Value: 2048, Flags: counters.IsRate, OneK: counters.OneK1024}}
	withCounter.LabelFormat = "size:%.0f"
	withCounter.LabelValue = 64

	bigO := bench.Run{
		Name:                bench.Name{FunctionName: "BM_Sort"},
		Type:                bench.RunAggregate,
		AggregateName:       "BigO",
		Iterations:          0,
		TimeUnit:            bench.Nanosecond,
		RealAccumulatedTime: 1.5e-9,
		CPUAccumulatedTime:  1.25e-9,
		Complexity:          bench.ONLogN,
		ReportBigO:          true,
	}
	rms := bench.Run{
		Name:                bench.Name{FunctionName: "BM_Sort"},
		Type:                bench.RunAggregate,
		AggregateName:       "RMS",
		AggregateUnit:       bench.UnitPercentage,
		TimeUnit:            bench.Nanosecond,
		RealAccumulatedTime: 0.05e-9,
		CPUAccumulatedTime:  0.04e-9,
		ReportRMS:           true,
	}
	cv := bench.Run{
		Name:                bench.Name{FunctionName: "BM_Sort"},
		Type:                bench.RunAggregate,
		AggregateName:       "cv",
		AggregateUnit:       bench.UnitPercentage,
		Iterations:          3,
		TimeUnit:            bench.Nanosecond,
		RealAccumulatedTime: 0.0123,
		CPUAccumulatedTime:  0.02,
	}
	failed := bench.Run{Name: bench.Name{FunctionName: "BM_Fail"}, Skipped: bench.SkippedWithError, SkipMessage: "bad input"}
	skipped := bench.Run{Name: bench.Name{FunctionName: "BM_Skip"}, Skipped: bench.SkippedWithMessage, SkipMessage: "not today"}

	tests := []struct {
		name string
		run  bench.Run
		want []string
	}{
		{"plain", iterationRun("BM_Plain", 0.5, 0.25, 1000), []string{"BM_Plain", "500000 ns", "250000 ns", "1000"}},
		{"small times", iterationRun("BM_Tiny", 0.5e-6, 0.5e-6, 1000), []string{"0.500 ns"}},
		{"counters and label", withCounter, []string{"bytes_per_second=2Ki/s", "size:64"}},
		{"big o", bigO, []string{"BM_Sort_BigO", "1.50 NlgN", "1.25 NlgN"}},
		{"rms", rms, []string{"BM_Sort_RMS", "5 %", "4 %"}},
		{"percentage aggregate", cv, []string{"BM_Sort_cv", "1.23 %", "2.00 %"}},
		{"error", failed, []string{"ERROR OCCURRED: 'bad input'"}},
		{"skipped", skipped, []string{"SKIPPED: 'not today'"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			rep := NewConsoleReporter(&buf, false)
			if !rep.ReportContext(testContext(20)) {
				t.Fatal("ReportContext() = false")
			}
			rep.ReportRuns([]bench.Run{tt.run})
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestConsoleReporterHeader(t *testing.T) {
	var buf bytes.Buffer
	rep := NewConsoleReporter(&buf, false)
	rep.ReportContext(testContext(12))
	rep.ReportRuns([]bench.Run{iterationRun("BM_A", 1, 1, 10)})
	rep.ReportRuns([]bench.Run{iterationRun("BM_B", 1, 1, 10)})

	out := buf.String()
	if strings.Count(out, "Benchmark") != 1 {
		t.Errorf("header printed %d times, want 1:\n%s", strings.Count(out, "Benchmark"), out)
	}
	if !strings.Contains(out, "Run on (8 X CPU s) linux/amd64 go1.25.0") {
		t.Errorf("missing context line:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "BM_A") && !strings.HasPrefix(line, "BM_A         ") {
			t.Errorf("name not padded to width 12: %q", line)
		}
	}
	if err := rep.Finalize(); err != nil {
		t.Errorf("Finalize() error = %v", err)
	}
}

func TestConsoleReporterTabularRepeatsHeader(t *testing.T) {
	a := iterationRun("BM_A", 1, 1, 10)
	a.Counters = counters.Set{"foo": counters.New(1, counters.Defaults)}
	b := iterationRun("BM_B", 1, 1, 10)
	b.Counters = counters.Set{"bar": counters.New(2, counters.Defaults)}

	var buf bytes.Buffer
	rep := NewConsoleReporter(&buf, true)
	rep.ReportContext(testContext(10))
	rep.ReportRuns([]bench.Run{a, a, b})

	out := buf.String()
	if got := strings.Count(out, "Benchmark"); got != 2 {
		t.Errorf("header printed %d times, want 2:\n%s", got, out)
	}
	if strings.Contains(out, "foo=") {
		t.Errorf("tabular output should not use name=value:\n%s", out)
	}
}

func TestConsoleReporterSeedLine(t *testing.T) {
	ctx := testContext(10)
	ctx.Interleaved = true
	ctx.Seed = 42

	var buf bytes.Buffer
	NewConsoleReporter(&buf, false).ReportContext(ctx)
	if !strings.Contains(buf.String(), "Random interleaving seed: 42") {
		t.Errorf("missing seed line:\n%s", buf.String())
	}
}

func TestSetColor(t *testing.T) {
	for _, mode := range []string{"auto", "always", "never", ""} {
		if err := SetColor(mode); err != nil {
			t.Errorf("SetColor(%q) error = %v", mode, err)
		}
	}
	if err := SetColor("sometimes"); err == nil {
		t.Error("SetColor(sometimes) should fail")
	}
	_ = SetColor("never")
}

func TestHumanReadable(t *testing.T) {
	tests := []struct {
		v    float64
		oneK counters.OneK
		want string
	}{
		{0, counters.OneK1000, "0"},
		{12, counters.OneK1000, "12"},
		{1234567, counters.OneK1000, "1.23457M"},
		{2048, counters.OneK1024, "2Ki"},
		{3 * 1024 * 1024, counters.OneK1024, "3Mi"},
		{0.5, counters.OneK1000, "500m"},
		{-1500, counters.OneK1000, "-1.5k"},
	}
	for _, tt := range tests {
		if got := humanReadable(tt.v, tt.oneK); got != tt.want {
			t.Errorf("humanReadable(%v, %d) = %q, want %q", tt.v, tt.oneK, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0.1234, "     0.123"},
		{1.234, "      1.23"},
		{12.34, "      12.3"},
		{1234.5, "      1234"},
		{2e10, "     2e+10"},
	}
	for _, tt := range tests {
		if got := formatTime(tt.v); got != tt.want {
			t.Errorf("formatTime(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
