package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/crankbench/internal/bench"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Benchmark string  // full reported name, e.g. "BM_Sort/1024_mean"
	Field     string  // real_time, cpu_time, iterations or counter.<name>
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Unit      string  // time unit of Value; empty means the run's own unit
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against reported runs.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided runs.
func (e *Evaluator) Evaluate(runs []bench.Run) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	byName := make(map[string]bench.Run, len(runs))
	for _, r := range runs {
		byName[r.BenchmarkName()] = r
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		result := e.evaluateOne(t, byName)
		results = append(results, result)
	}
	return results
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

func (e *Evaluator) evaluateOne(t Threshold, runs map[string]bench.Run) Result {
	run, ok := runs[t.Benchmark]
	if !ok {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: no run named %q was reported", t.Raw, t.Benchmark),
		}
	}
	actual, unit, err := extractFieldValue(t, run)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: error: %v", t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.2f%s %s %.2f%s", status, t.Raw, actual, unit, t.Operator, t.Value, unit)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

// The benchmark name may itself contain colons (min_time:0.5), so the name
// group is greedy and the field group anchors the last one.
var thresholdPattern = regexp.MustCompile(`^(.+):(real_time|cpu_time|iterations|counter\.[^\s<>=!]+)\s*(<=|>=|==|<|>)\s*([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)\s*([a-zµ]*)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "BM_Sort/1024:real_time < 2ms"        (per-iteration wall time)
// - "BM_Sort/1024_mean:cpu_time <= 1500"  (per-iteration cpu time in the run's unit)
// - "BM_Sort/1024:iterations >= 100"      (iteration count)
// - "BM_Copy/64:counter.bytes_per_second > 1e9"
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: name:field operator value[unit], e.g., 'BM_Sort/1024:real_time < 2ms')", s)
	}

	name := strings.TrimSpace(matches[1])
	field := matches[2]
	operator := matches[3]
	valueStr := matches[4]
	unit := matches[5]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if name == "" {
		return Threshold{}, fmt.Errorf("threshold %q names no benchmark", s)
	}

	if unit != "" {
		if !isTimeField(field) {
			return Threshold{}, fmt.Errorf("unit %q is only valid for real_time and cpu_time", unit)
		}
		tu, err := bench.ParseTimeUnit(unit)
		if err != nil {
			return Threshold{}, err
		}
		unit = tu.String()
	}

	return Threshold{
		Benchmark: name,
		Field:     field,
		Operator:  operator,
		Value:     value,
		Unit:      unit,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func isTimeField(field string) bool {
	return field == "real_time" || field == "cpu_time"
}

// extractFieldValue returns the measured value and, for times, the unit it
// is expressed in.
func extractFieldValue(t Threshold, run bench.Run) (float64, string, error) {
	if run.Skipped != bench.NotSkipped {
		return 0, "", fmt.Errorf("run was skipped: %s", run.SkipMessage)
	}
	switch {
	case isTimeField(t.Field):
		if run.ReportBigO || run.ReportRMS {
			return 0, "", fmt.Errorf("%s has no per-iteration %s", run.BenchmarkName(), t.Field)
		}
		seconds := run.RealAccumulatedTime
		if t.Field == "cpu_time" {
			seconds = run.CPUAccumulatedTime
		}
		unit := run.TimeUnit
		if t.Unit != "" {
			unit, _ = bench.ParseTimeUnit(t.Unit)
		}
		v := seconds * unit.Multiplier()
		if run.Iterations != 0 {
			v /= float64(run.Iterations)
		}
		return v, unit.String(), nil
	case t.Field == "iterations":
		return float64(run.Iterations), "", nil
	default:
		name := strings.TrimPrefix(t.Field, "counter.")
		c, ok := run.Counters[name]
		if !ok {
			return 0, "", fmt.Errorf("%s has no counter %q", run.BenchmarkName(), name)
		}
		return c.Value, "", nil
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
