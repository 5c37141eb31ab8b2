package runner

import (
	"time"

	"github.com/torosent/crankbench/internal/bench"
)

// Context is handed to every reporter once before any benchmark runs.
type Context struct {
	RunID          string    `json:"run_id" yaml:"run_id"`
	Date           time.Time `json:"date" yaml:"date"`
	Executable     string    `json:"executable" yaml:"executable"`
	Host           string    `json:"host_name" yaml:"host_name"`
	NumCPUs        int       `json:"num_cpus" yaml:"num_cpus"`
	GOOS           string    `json:"goos" yaml:"goos"`
	GOARCH         string    `json:"goarch" yaml:"goarch"`
	GoVersion      string    `json:"go_version" yaml:"go_version"`
	Benchmarks     int       `json:"benchmarks" yaml:"benchmarks"`
	Repetitions    int       `json:"repetitions" yaml:"repetitions"`
	Interleaved    bool      `json:"random_interleaving" yaml:"random_interleaving"`
	Seed           uint64    `json:"random_interleaving_seed,omitempty" yaml:"random_interleaving_seed,omitempty"`
	NameFieldWidth int       `json:"-" yaml:"-"`
}

// Reporter consumes runs as each instance finishes its repetitions.
type Reporter interface {
	// ReportContext is called once up front. Returning false aborts the run.
	ReportContext(ctx Context) bool
	// ReportRunsConfig describes how the next batch of runs was measured.
	ReportRunsConfig(minTime float64, explicitIters bool, iters int64)
	ReportRuns(runs []bench.Run)
	Finalize() error
}

// Observer is notified as repetitions complete. Implementations must be
// safe to call from the runner goroutine while being read elsewhere.
type Observer interface {
	Begin(instances, repetitions int)
	RepetitionDone(run bench.Run)
	InstanceDone(runs []bench.Run)
}

type discardReporter struct{}

func (discardReporter) ReportContext(Context) bool            { return true }
func (discardReporter) ReportRunsConfig(float64, bool, int64) {}
func (discardReporter) ReportRuns([]bench.Run)                {}
func (discardReporter) Finalize() error                       { return nil }
