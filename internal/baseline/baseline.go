// Package baseline compares reported runs against a JSON report written by
// an earlier run.
package baseline

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/torosent/crankbench/internal/bench"
)

// ErrInvalidReport is returned for files that are not a JSON report.
var ErrInvalidReport = errors.New("baseline: not a JSON report")

// Entry is the per-iteration timing of one benchmark in the baseline.
type Entry struct {
	RealTime float64
	CPUTime  float64
	TimeUnit bench.TimeUnit
}

// Comparison holds old and new per-iteration times in the new run's unit.
type Comparison struct {
	Name       string
	Unit       bench.TimeUnit
	OldReal    float64
	NewReal    float64
	OldCPU     float64
	NewCPU     float64
	RealChange float64
	CPUChange  float64
}

// Baseline is a parsed previous report.
type Baseline struct {
	data []byte
}

// Load reads a report from disk.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	return Parse(data)
}

// Parse validates data as a report with a benchmarks array.
func Parse(data []byte) (*Baseline, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidReport
	}
	if !gjson.GetBytes(data, "benchmarks").IsArray() {
		return nil, fmt.Errorf("%w: missing benchmarks array", ErrInvalidReport)
	}
	return &Baseline{data: data}, nil
}

// Len is the number of benchmarks in the baseline.
func (b *Baseline) Len() int {
	return int(gjson.GetBytes(b.data, "benchmarks.#").Int())
}

// Lookup finds a benchmark by its reported name. Entries without times,
// such as skipped runs or complexity fits, are not found.
func (b *Baseline) Lookup(name string) (Entry, bool) {
	res := gjson.GetBytes(b.data, `benchmarks.#(name=="`+escape(name)+`")`)
	if !res.Exists() {
		return Entry{}, false
	}
	realTime, cpuTime := res.Get("real_time"), res.Get("cpu_time")
	if !realTime.Exists() || !cpuTime.Exists() {
		return Entry{}, false
	}
	unit, err := bench.ParseTimeUnit(res.Get("time_unit").String())
	if err != nil {
		return Entry{}, false
	}
	return Entry{RealTime: realTime.Float(), CPUTime: cpuTime.Float(), TimeUnit: unit}, true
}

// Compare matches every timed run against the baseline. Runs missing from
// the baseline are left out.
func (b *Baseline) Compare(runs []bench.Run) []Comparison {
	var out []Comparison
	for _, run := range runs {
		if run.Skipped != bench.NotSkipped || run.ReportBigO || run.ReportRMS || run.AggregateUnit == bench.UnitPercentage {
			continue
		}
		name := run.BenchmarkName()
		old, ok := b.Lookup(name)
		if !ok {
			continue
		}
		scale := run.TimeUnit.Multiplier() / old.TimeUnit.Multiplier()
		c := Comparison{
			Name:    name,
			Unit:    run.TimeUnit,
			OldReal: old.RealTime * scale,
			OldCPU:  old.CPUTime * scale,
			NewReal: run.AdjustedRealTime(),
			NewCPU:  run.AdjustedCPUTime(),
		}
		c.RealChange = Change(c.OldReal, c.NewReal)
		c.CPUChange = Change(c.OldCPU, c.NewCPU)
		out = append(out, c)
	}
	return out
}

// Change is the relative difference (after-before)/|before|. A zero
// before value yields 0 when after is also zero and +Inf otherwise.
func Change(before, after float64) float64 {
	if before == 0 {
		if after == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (after - before) / math.Abs(before)
}

// Print writes a comparison table.
func Print(w io.Writer, cs []Comparison) {
	fmt.Fprintln(w, "\n--- Baseline Comparison ---")
	if len(cs) == 0 {
		fmt.Fprintln(w, "  No matching benchmarks")
		return
	}
	width := len("Benchmark")
	for _, c := range cs {
		width = max(width, len(c.Name))
	}
	fmt.Fprintf(w, "  %-*s %12s %12s %9s %12s %12s %9s\n", width, "Benchmark", "Time Old", "Time New", "Δ", "CPU Old", "CPU New", "Δ")
	for _, c := range cs {
		fmt.Fprintf(w, "  %-*s %9.3f %-2s %9.3f %-2s %+8.1f%% %9.3f %-2s %9.3f %-2s %+8.1f%%\n",
			width, c.Name,
			c.OldReal, c.Unit, c.NewReal, c.Unit, c.RealChange*100,
			c.OldCPU, c.Unit, c.NewCPU, c.Unit, c.CPUChange*100)
	}
}

// escape quotes a benchmark name for a gjson query value.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
