package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/torosent/crankbench/internal/alloc"
	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/metrics"
	"github.com/torosent/crankbench/internal/runner"
)

// Formats accepted by NewReporter.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatCSV     = "csv"
	FormatHTML    = "html"
)

// Record is the serialized form of one run.
type Record struct {
	Name                   string             `json:"name" yaml:"name"`
	FamilyIndex            int                `json:"family_index" yaml:"family_index"`
	PerFamilyInstanceIndex int                `json:"per_family_instance_index" yaml:"per_family_instance_index"`
	RunName                string             `json:"run_name" yaml:"run_name"`
	RunType                string             `json:"run_type" yaml:"run_type"`
	Repetitions            int                `json:"repetitions" yaml:"repetitions"`
	RepetitionIndex        *int               `json:"repetition_index,omitempty" yaml:"repetition_index,omitempty"`
	Threads                int                `json:"threads" yaml:"threads"`
	AggregateName          string             `json:"aggregate_name,omitempty" yaml:"aggregate_name,omitempty"`
	AggregateUnit          string             `json:"aggregate_unit,omitempty" yaml:"aggregate_unit,omitempty"`
	ErrorOccurred          bool               `json:"error_occurred,omitempty" yaml:"error_occurred,omitempty"`
	ErrorMessage           string             `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	SkipMessage            string             `json:"skip_message,omitempty" yaml:"skip_message,omitempty"`
	Iterations             int64              `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	RealTime               *float64           `json:"real_time,omitempty" yaml:"real_time,omitempty"`
	CPUTime                *float64           `json:"cpu_time,omitempty" yaml:"cpu_time,omitempty"`
	RealCoefficient        *float64           `json:"real_coefficient,omitempty" yaml:"real_coefficient,omitempty"`
	CPUCoefficient         *float64           `json:"cpu_coefficient,omitempty" yaml:"cpu_coefficient,omitempty"`
	BigO                   string             `json:"big_o,omitempty" yaml:"big_o,omitempty"`
	RMS                    *float64           `json:"rms,omitempty" yaml:"rms,omitempty"`
	TimeUnit               string             `json:"time_unit,omitempty" yaml:"time_unit,omitempty"`
	Label                  string             `json:"label,omitempty" yaml:"label,omitempty"`
	ComplexityN            int64              `json:"complexity_n,omitempty" yaml:"complexity_n,omitempty"`
	Counters               map[string]float64 `json:"counters,omitempty" yaml:"counters,omitempty"`
	Memory                 *alloc.Stats       `json:"memory,omitempty" yaml:"memory,omitempty"`
}

// Document is a complete report: the context and every run in report order.
type Document struct {
	Context    runner.Context `json:"context" yaml:"context"`
	Benchmarks []Record       `json:"benchmarks" yaml:"benchmarks"`
}

// NewRecord converts a run. BigO runs carry coefficients, RMS runs carry
// the normalized error, and every other run carries per-iteration times.
func NewRecord(run bench.Run) Record {
	rec := Record{
		Name:                   run.BenchmarkName(),
		FamilyIndex:            run.FamilyIndex,
		PerFamilyInstanceIndex: run.PerFamilyInstanceIndex,
		RunName:                run.Name.String(),
		RunType:                run.Type.String(),
		Repetitions:            run.Repetitions,
		Threads:                run.Threads,
		Label:                  run.Label(),
		Memory:                 run.Memory,
	}
	if run.Type == bench.RunIteration {
		idx := run.RepetitionIndex
		rec.RepetitionIndex = &idx
	} else {
		rec.AggregateName = run.AggregateName
		rec.AggregateUnit = run.AggregateUnit.String()
	}

	switch run.Skipped {
	case bench.SkippedWithError:
		rec.ErrorOccurred = true
		rec.ErrorMessage = run.SkipMessage
		return rec
	case bench.SkippedWithMessage:
		rec.SkipMessage = run.SkipMessage
		return rec
	}

	realTime, cpuTime := run.AdjustedRealTime(), run.AdjustedCPUTime()
	switch {
	case run.ReportBigO:
		rec.RealCoefficient = &realTime
		rec.CPUCoefficient = &cpuTime
		rec.BigO = run.Complexity.String()
		rec.TimeUnit = run.TimeUnit.String()
	case run.ReportRMS:
		rms := cpuTime
		rec.RMS = &rms
	default:
		rec.Iterations = run.Iterations
		rec.RealTime = &realTime
		rec.CPUTime = &cpuTime
		rec.TimeUnit = run.TimeUnit.String()
		rec.ComplexityN = run.ComplexityN
	}
	if len(run.Counters) > 0 {
		rec.Counters = make(map[string]float64, len(run.Counters))
		for name, c := range run.Counters {
			rec.Counters[name] = c.Value
		}
	}
	return rec
}

// Recorder is a reporter that keeps the whole document in memory.
type Recorder struct {
	doc Document
}

func (r *Recorder) ReportContext(ctx runner.Context) bool {
	r.doc.Context = ctx
	return true
}

func (r *Recorder) ReportRunsConfig(float64, bool, int64) {}

func (r *Recorder) ReportRuns(runs []bench.Run) {
	for _, run := range runs {
		r.doc.Benchmarks = append(r.doc.Benchmarks, NewRecord(run))
	}
}

func (r *Recorder) Finalize() error { return nil }

// Document returns what has been recorded so far.
func (r *Recorder) Document() Document {
	return r.doc
}

// JSONReporter writes the document as indented JSON on Finalize.
type JSONReporter struct {
	Recorder
	w io.Writer
}

func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

func (r *JSONReporter) Finalize() error {
	return WriteJSON(r.w, r.doc)
}

// WriteJSON encodes a document the way JSONReporter does.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// YAMLReporter writes the document as YAML on Finalize.
type YAMLReporter struct {
	Recorder
	w io.Writer
}

func NewYAMLReporter(w io.Writer) *YAMLReporter {
	return &YAMLReporter{w: w}
}

func (r *YAMLReporter) Finalize() error {
	return WriteYAML(r.w, r.doc)
}

// WriteYAML encodes a document the way YAMLReporter does.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// NewReporter builds the display reporter for a format name.
func NewReporter(format string, w io.Writer, tabular bool) (runner.Reporter, error) {
	switch strings.ToLower(format) {
	case "", FormatConsole:
		return NewConsoleReporter(w, tabular), nil
	case FormatJSON:
		return NewJSONReporter(w), nil
	case FormatYAML:
		return NewYAMLReporter(w), nil
	case FormatCSV:
		return NewCSVReporter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Encode writes a finished document in the given file format.
func Encode(w io.Writer, format string, doc Document, extra HTMLExtras) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return WriteJSON(w, doc)
	case FormatYAML:
		return WriteYAML(w, doc)
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatHTML:
		return GenerateHTMLReport(w, doc, extra)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// PrintReport outputs a human-readable summary of the run.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Run Summary ---")
	fmt.Fprintf(w, "Benchmarks:        %d/%d\n", stats.Instances, stats.PlannedInstances)
	fmt.Fprintf(w, "Repetitions:       %d/%d\n", stats.Repetitions, stats.PlannedRepetitions)
	fmt.Fprintf(w, "Skipped:           %d\n", stats.Skipped)
	fmt.Fprintf(w, "Errors:            %d\n", stats.Failed)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Repetitions/sec:   %.2f\n", stats.RepetitionsPerSec)

	spread := make([]metrics.BenchmarkStats, 0, len(stats.Benchmarks))
	for _, b := range stats.Benchmarks {
		if b.Repetitions > 1 {
			spread = append(spread, b)
		}
	}
	if len(spread) > 0 {
		fmt.Fprintln(w, "\nRepetition Spread (ns/iter):")
		for _, b := range spread {
			fmt.Fprintf(w, "  - %s: n=%d, min=%.1f, p50=%.1f, p90=%.1f, p99=%.1f, max=%.1f\n",
				b.Name, b.Repetitions, b.MinNs, b.P50Ns, b.P90Ns, b.P99Ns, b.MaxNs)
		}
	}

	if len(stats.SkipReasons) > 0 {
		fmt.Fprintln(w, "\nSkip Reasons:")
		for _, row := range stats.SkipReasons {
			fmt.Fprintf(w, "  %s %q: %d\n", strings.ToUpper(row.Kind), row.Message, row.Count)
		}
	}
}

// PrintJSONReport outputs the summary as JSON.
func PrintJSONReport(w io.Writer, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
