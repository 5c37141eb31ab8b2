package threshold

import (
	"strings"
	"testing"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "real time with unit",
			input: "BM_Sort/1024:real_time < 2ms",
			want: Threshold{
				Benchmark: "BM_Sort/1024",
				Field:     "real_time",
				Operator:  "<",
				Value:     2,
				Unit:      "ms",
				Raw:       "BM_Sort/1024:real_time < 2ms",
			},
		},
		{
			name:  "name containing colons",
			input: "BM_Sort/8/min_time:0.500/threads:2_mean:cpu_time <= 1500",
			want: Threshold{
				Benchmark: "BM_Sort/8/min_time:0.500/threads:2_mean",
				Field:     "cpu_time",
				Operator:  "<=",
				Value:     1500,
				Raw:       "BM_Sort/8/min_time:0.500/threads:2_mean:cpu_time <= 1500",
			},
		},
		{
			name:  "iterations",
			input: "BM_Map:iterations>=100",
			want: Threshold{
				Benchmark: "BM_Map",
				Field:     "iterations",
				Operator:  ">=",
				Value:     100,
				Raw:       "BM_Map:iterations>=100",
			},
		},
		{
			name:  "counter with exponent",
			input: "BM_Copy/64:counter.bytes_per_second > 1e9",
			want: Threshold{
				Benchmark: "BM_Copy/64",
				Field:     "counter.bytes_per_second",
				Operator:  ">",
				Value:     1e9,
				Raw:       "BM_Copy/64:counter.bytes_per_second > 1e9",
			},
		},
		{
			name:  "microseconds alias",
			input: "BM_Map:real_time == 3us",
			want: Threshold{
				Benchmark: "BM_Map",
				Field:     "real_time",
				Operator:  "==",
				Value:     3,
				Unit:      "us",
				Raw:       "BM_Map:real_time == 3us",
			},
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
		{
			name:      "invalid format - missing operator",
			input:     "BM_Map:real_time 500",
			wantError: true,
		},
		{
			name:      "unknown field",
			input:     "BM_Map:p95 < 500",
			wantError: true,
		},
		{
			name:      "missing name",
			input:     ":real_time < 500",
			wantError: true,
		},
		{
			name:      "invalid operator",
			input:     "BM_Map:real_time << 500",
			wantError: true,
		},
		{
			name:      "invalid value - not a number",
			input:     "BM_Map:real_time < abc",
			wantError: true,
		},
		{
			name:      "unit on iterations",
			input:     "BM_Map:iterations < 5ms",
			wantError: true,
		},
		{
			name:      "unknown unit",
			input:     "BM_Map:real_time < 5min",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("Parse() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		wantCount int
		wantError bool
	}{
		{
			name:      "empty",
			input:     nil,
			wantCount: 0,
		},
		{
			name:      "all valid",
			input:     []string{"BM_A:real_time < 1ms", "BM_B:iterations > 10"},
			wantCount: 2,
		},
		{
			name:      "one invalid",
			input:     []string{"BM_A:real_time < 1ms", "bogus"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMultiple(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseMultiple() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError {
				if !strings.Contains(err.Error(), "threshold[1]") {
					t.Errorf("error %q does not name the failing index", err)
				}
				return
			}
			if len(got) != tt.wantCount {
				t.Errorf("ParseMultiple() returned %d thresholds, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func sampleRuns() []bench.Run {
	return []bench.Run{
		{
			Name:                bench.Name{FunctionName: "BM_Sort", Args: "1024"},
			Iterations:          1000,
			TimeUnit:            bench.Microsecond,
			RealAccumulatedTime: 0.002, // 2us per iteration
			CPUAccumulatedTime:  0.0015,
			Counters:            counters.Set{"items_per_second": counters.New(5e8, counters.IsRate)},
		},
		{
			Name:                bench.Name{FunctionName: "BM_Sort", Args: "1024"},
			Type:                bench.RunAggregate,
			AggregateName:       "mean",
			Iterations:          3,
			TimeUnit:            bench.Microsecond,
			RealAccumulatedTime: 0.000006,
			CPUAccumulatedTime:  0.000003,
		},
		{
			Name:        bench.Name{FunctionName: "BM_Skip"},
			Skipped:     bench.SkippedWithError,
			SkipMessage: "boom",
		},
	}
}

func TestEvaluator(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []string
		wantPass   []bool
	}{
		{
			name:       "time in run unit",
			thresholds: []string{"BM_Sort/1024:real_time < 2.5", "BM_Sort/1024:cpu_time < 1"},
			wantPass:   []bool{true, false},
		},
		{
			name:       "time in explicit unit",
			thresholds: []string{"BM_Sort/1024:real_time <= 2000ns", "BM_Sort/1024:real_time < 0.001ms"},
			wantPass:   []bool{true, false},
		},
		{
			name:       "aggregate name",
			thresholds: []string{"BM_Sort/1024_mean:real_time == 2", "BM_Sort/1024_mean:cpu_time == 1"},
			wantPass:   []bool{true, true},
		},
		{
			name:       "iterations and counters",
			thresholds: []string{"BM_Sort/1024:iterations >= 1000", "BM_Sort/1024:counter.items_per_second > 1e9"},
			wantPass:   []bool{true, false},
		},
		{
			name:       "missing benchmark counter or skipped run",
			thresholds: []string{"BM_Nope:real_time < 1", "BM_Sort/1024:counter.nope > 0", "BM_Skip:iterations >= 0"},
			wantPass:   []bool{false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := ParseMultiple(tt.thresholds)
			if err != nil {
				t.Fatalf("ParseMultiple() error = %v", err)
			}
			results := NewEvaluator(thresholds).Evaluate(sampleRuns())
			if len(results) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.wantPass))
			}
			for i, result := range results {
				if result.Pass != tt.wantPass[i] {
					t.Errorf("threshold[%d] %q: got pass=%v, want %v (actual=%.4f, %s)",
						i, result.Threshold.Raw, result.Pass, tt.wantPass[i], result.Actual, result.Message)
				}
				prefix := "✓"
				if !result.Pass {
					prefix = "✗"
				}
				if !strings.HasPrefix(result.Message, prefix) {
					t.Errorf("message %q should start with %s", result.Message, prefix)
				}
			}
			if got, want := Failed(results), countFalse(tt.wantPass); got != want {
				t.Errorf("Failed() = %d, want %d", got, want)
			}
		})
	}
}

func TestEvaluatorNoThresholds(t *testing.T) {
	if got := NewEvaluator(nil).Evaluate(sampleRuns()); got != nil {
		t.Errorf("Evaluate() with no thresholds = %v, want nil", got)
	}
}

func countFalse(v []bool) int {
	n := 0
	for _, b := range v {
		if !b {
			n++
		}
	}
	return n
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than false", 100, "<", 50, false},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal true", 50, "<=", 100, true},
		{"less than or equal equal", 100, "<=", 100, true},
		{"less than or equal false", 150, "<=", 100, false},
		{"greater than true", 150, ">", 100, true},
		{"greater than false", 50, ">", 100, false},
		{"greater than equal", 100, ">", 100, false},
		{"greater than or equal true", 150, ">=", 100, true},
		{"greater than or equal equal", 100, ">=", 100, true},
		{"greater than or equal false", 50, ">=", 100, false},
		{"equal true", 100, "==", 100, true},
		{"equal false", 100, "==", 101, false},
		{"equal with floating point precision", 100.0000000001, "==", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.actual, tt.operator, tt.expected)
			if got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}
