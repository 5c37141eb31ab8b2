package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/metrics"
)

func TestFormatNs(t *testing.T) {
	tests := []struct {
		ns       float64
		expected string
	}{
		{12, "12ns"},
		{1500, "1.50us"},
		{2_500_000, "2.50ms"},
		{3e9, "3.00s"},
	}

	for _, tt := range tests {
		if got := formatNs(tt.ns); got != tt.expected {
			t.Errorf("formatNs(%v) = %s, expected %s", tt.ns, got, tt.expected)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.255, 25},
		{1, 100},
		{1.7, 100},
		{-0.1, 0},
	}
	for _, tt := range tests {
		if got := percent(tt.in); got != tt.want {
			t.Errorf("percent(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestShortLabel(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"BM_Map", "BM_Map"},
		{"BM_Sort/1024", "1024"},
		{"BM_LongName", "BM_LongN"},
		{"BM_Sort/", "BM_Sort/"},
	}
	for _, tt := range tests {
		if got := shortLabel(tt.name, 8); got != tt.want {
			t.Errorf("shortLabel(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func sampleBenchmarks(n int) []metrics.BenchmarkStats {
	out := make([]metrics.BenchmarkStats, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, metrics.BenchmarkStats{
			Name:        "BM_Sort/" + strings.Repeat("1", i+1),
			Repetitions: 3,
			MinNs:       100,
			P50Ns:       float64(1000 * (i + 1)),
			P99Ns:       2000,
			MaxNs:       2500,
		})
	}
	return out
}

func TestChartDataKeepsMostRecent(t *testing.T) {
	labels, values := chartData(sampleBenchmarks(10), 4)
	if len(labels) != 4 || len(values) != 4 {
		t.Fatalf("got %d labels and %d values, want 4", len(labels), len(values))
	}
	if values[0] != 7000 || values[3] != 10000 {
		t.Errorf("values = %v, want the last four medians", values)
	}
}

func TestFormatBenchmarkRows(t *testing.T) {
	if rows := formatBenchmarkRows(nil, 5); len(rows) != 1 || !strings.Contains(rows[0], "Awaiting") {
		t.Errorf("empty rows = %v", rows)
	}
	rows := formatBenchmarkRows(sampleBenchmarks(2), 5)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, want := range []string{"BM_Sort/1", "reps 3", "min 100ns", "p50 1.00us", "max 2.50us"} {
		if !strings.Contains(rows[0], want) {
			t.Errorf("row %q missing %q", rows[0], want)
		}
	}
}

func TestFormatSkipRows(t *testing.T) {
	rows := formatSkipRows([]metrics.SkipBucket{
		{Kind: "error", Message: "boom", Count: 2},
		{Kind: "skipped", Message: "later", Count: 1},
	}, 10)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !strings.Contains(rows[0], "ERROR](fg:red)") || !strings.Contains(rows[0], `"boom" x2`) {
		t.Errorf("rows[0] = %q", rows[0])
	}
	if !strings.Contains(rows[1], "fg:yellow") {
		t.Errorf("rows[1] = %q", rows[1])
	}
	if rows := formatSkipRows(nil, 10); !strings.Contains(rows[0], "No skips") {
		t.Errorf("empty rows = %v", rows)
	}
}

func TestFormatLatest(t *testing.T) {
	runs := []bench.Run{
		{Name: bench.Name{FunctionName: "BM_Sort", Args: "8"}, Iterations: 1000, TimeUnit: bench.Nanosecond, RealAccumulatedTime: 2e-6, CPUAccumulatedTime: 1e-6},
		{Name: bench.Name{FunctionName: "BM_Sort"}, Type: bench.RunAggregate, AggregateName: "BigO", ReportBigO: true, Complexity: bench.ONLogN, CPUAccumulatedTime: 1.5},
		{Name: bench.Name{FunctionName: "BM_Fail"}, Skipped: bench.SkippedWithError},
	}
	text := formatLatest(runs)
	for _, want := range []string{"BM_Sort/8", "2.000 ns", "x1000", "1.50 NlgN", "BM_Fail"} {
		if !strings.Contains(text, want) {
			t.Errorf("latest text missing %q:\n%s", want, text)
		}
	}
	if formatLatest(nil) != "Waiting for data..." {
		t.Error("expected placeholder without runs")
	}
}

func TestUpdate(t *testing.T) {
	d := &Dashboard{runConfig: RunConfig{Benchmarks: 2, Repetitions: 3}}
	d.initWidgets()

	stats := metrics.Stats{
		PlannedInstances:   2,
		PlannedRepetitions: 6,
		Instances:          1,
		Repetitions:        3,
		Skipped:            1,
		RepetitionsPerSec:  12.5,
		Duration:           2 * time.Second,
		Benchmarks:         sampleBenchmarks(1),
	}
	d.update(stats, nil)

	if d.progressGauge.Percent != 50 {
		t.Errorf("gauge = %d%%, want 50", d.progressGauge.Percent)
	}
	if d.progressGauge.Label != "3/6 (50%)" {
		t.Errorf("gauge label = %q", d.progressGauge.Label)
	}
	if !strings.Contains(d.summaryPara.Text, "Benchmarks: 1/2") || !strings.Contains(d.summaryPara.Text, "Repetitions: 3") {
		t.Errorf("summary = %q", d.summaryPara.Text)
	}
	if len(d.timeChart.Data) != 1 || d.timeChart.Data[0] != 1000 {
		t.Errorf("chart data = %v", d.timeChart.Data)
	}
	if got := d.rateSparkline.Sparklines[0].Data; len(got) != 1 || got[0] != 12.5 {
		t.Errorf("sparkline = %v", got)
	}

	for i := 0; i < historySize+5; i++ {
		d.update(stats, nil)
	}
	if len(d.rateHistory) != historySize {
		t.Errorf("history length = %d, want %d", len(d.rateHistory), historySize)
	}
}

func TestFormatRunParams(t *testing.T) {
	tests := []struct {
		name     string
		config   RunConfig
		contains []string
		excludes []string
	}{
		{
			name:     "basic config",
			config:   RunConfig{Benchmarks: 4, Repetitions: 3, MinTime: 0.5},
			contains: []string{"Benchmarks: 4", "Repetitions: 3", "Min time: 0.5s", "Rate: unlimited"},
			excludes: []string{"Interleaved", "Filter:"},
		},
		{
			name:     "single repetition hidden",
			config:   RunConfig{Repetitions: 1},
			excludes: []string{"Repetitions:"},
		},
		{
			name:     "interleaved",
			config:   RunConfig{Interleaved: true, Seed: 42},
			contains: []string{"Interleaved (seed 42)"},
		},
		{
			name:     "paced",
			config:   RunConfig{MaxRepetitionRate: 5},
			contains: []string{"Rate: 5/s"},
		},
		{
			name:     "default filter hidden",
			config:   RunConfig{Filter: "."},
			excludes: []string{"Filter:"},
		},
		{
			name:     "filter and config file",
			config:   RunConfig{Filter: "BM_Sort", ConfigFile: "bench.yml", MinWarmupTime: 0.1},
			contains: []string{"Filter: BM_Sort", "Config: bench.yml", "Warmup: 0.1s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dashboard{runConfig: tt.config}
			result := d.formatRunParams()

			for _, s := range tt.contains {
				if !strings.Contains(result, s) {
					t.Errorf("expected result to contain %q, got %q", s, result)
				}
			}

			for _, s := range tt.excludes {
				if strings.Contains(result, s) {
					t.Errorf("expected result NOT to contain %q, got %q", s, result)
				}
			}
		})
	}
}
