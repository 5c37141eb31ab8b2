package bench

import "github.com/torosent/crankbench/internal/alloc"

// Name is the structured name of an instance. Empty parts are omitted
// when formatted.
type Name struct {
	FunctionName  string
	Args          string
	MinTime       string
	MinWarmupTime string
	Iterations    string
	Repetitions   string
	TimeType      string
	Threads       string
}

func (n Name) String() string {
	var out string
	for _, part := range []string{n.FunctionName, n.Args, n.MinTime, n.MinWarmupTime, n.Iterations, n.Repetitions, n.TimeType, n.Threads} {
		out = joinName(out, part)
	}
	return out
}

func joinName(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "/" + b
	}
}

// Instance is a benchmark bound to one argument tuple and thread count.
// It is immutable once created.
type Instance struct {
	Name                   Name
	FamilyIndex            int
	PerFamilyInstanceIndex int
	Args                   []int64
	Threads                int

	bench *Benchmark
}

// Run invokes the workload for one thread.
func (i *Instance) Run(st *State, a alloc.Allocator) {
	i.bench.fn(st, a)
}

// RunSetup invokes the setup hook, if any.
func (i *Instance) RunSetup() {
	if i.bench.setup != nil {
		i.bench.setup(i)
	}
}

// RunTeardown invokes the teardown hook, if any.
func (i *Instance) RunTeardown() {
	if i.bench.teardown != nil {
		i.bench.teardown(i)
	}
}

// FamilyName is the benchmark's declared name.
func (i *Instance) FamilyName() string { return i.bench.name }

// MinTime returns the per-benchmark minimum time and whether it was set.
func (i *Instance) MinTime() (float64, bool) { return i.bench.minTime, i.bench.hasMinTime }

// MinWarmupTime returns the per-benchmark warmup time and whether it was set.
func (i *Instance) MinWarmupTime() (float64, bool) {
	return i.bench.minWarmupTime, i.bench.hasMinWarmupTime
}

// Iterations returns the explicit iteration count, or 0.
func (i *Instance) Iterations() int64 { return i.bench.iterations }

// Repetitions returns the explicit repetition count, or 0.
func (i *Instance) Repetitions() int { return i.bench.repetitions }

// TimeUnit returns the per-benchmark unit and whether it was set.
func (i *Instance) TimeUnit() (TimeUnit, bool) { return i.bench.unit, i.bench.hasUnit }

func (i *Instance) UseRealTime() bool           { return i.bench.useRealTime }
func (i *Instance) UseManualTime() bool         { return i.bench.useManualTime }
func (i *Instance) MeasureProcessCPUTime() bool { return i.bench.processCPUTime }
func (i *Instance) Complexity() BigO            { return i.bench.complexity }
func (i *Instance) ComplexityLambda() ComplexityFunc {
	return i.bench.complexityLambda
}

// Statistics returns the extra statistics declared on the benchmark.
func (i *Instance) Statistics() []Statistic { return i.bench.statistics }

// AggregationMode returns the reporting mode and whether it was set.
func (i *Instance) AggregationMode() (AggregationMode, bool) {
	return i.bench.aggregation, i.bench.aggregationSet
}

func (i *Instance) MemoryRequired() int { return i.bench.memoryRequired }

// String returns the formatted instance name.
func (i *Instance) String() string { return i.Name.String() }
