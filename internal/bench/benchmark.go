package bench

import (
	"fmt"

	"github.com/torosent/crankbench/internal/alloc"
)

// Func is the measured workload. It runs once per thread per probe.
type Func func(st *State, a alloc.Allocator)

// Hook runs once per repetition around the adaptive search.
type Hook func(inst *Instance)

// DefaultMemoryRequired is the scratch arena size given to each thread.
const DefaultMemoryRequired = 1 << 20

// Benchmark is the declaration of a benchmark family. Builder methods
// return the receiver so calls can be chained.
type Benchmark struct {
	name     string
	fn       Func
	args     [][]int64
	argNames []string
	threads  []int

	minTime          float64
	hasMinTime       bool
	minWarmupTime    float64
	hasMinWarmupTime bool
	iterations       int64
	repetitions      int

	unit    TimeUnit
	hasUnit bool

	useRealTime    bool
	useManualTime  bool
	processCPUTime bool

	complexity       BigO
	complexityLambda ComplexityFunc
	statistics       []Statistic
	aggregation      AggregationMode
	aggregationSet   bool

	setup    Hook
	teardown Hook

	memoryRequired int
}

// New declares a benchmark.
func New(name string, fn Func) *Benchmark {
	return &Benchmark{name: name, fn: fn, memoryRequired: DefaultMemoryRequired}
}

func (b *Benchmark) Name() string { return b.name }

// Arg adds a single argument instance.
func (b *Benchmark) Arg(x int64) *Benchmark {
	return b.Args(x)
}

// Args adds one argument tuple. All tuples must have the same length.
func (b *Benchmark) Args(xs ...int64) *Benchmark {
	if len(b.args) > 0 && len(b.args[0]) != len(xs) {
		panic(fmt.Sprintf("bench: %s: argument tuple of length %d, want %d", b.name, len(xs), len(b.args[0])))
	}
	b.args = append(b.args, append([]int64(nil), xs...))
	return b
}

// ArgNames names the positions of the argument tuple in run names.
func (b *Benchmark) ArgNames(names ...string) *Benchmark {
	b.argNames = append([]string(nil), names...)
	return b
}

// Threads adds a thread count. Each count produces its own instances.
func (b *Benchmark) Threads(n int) *Benchmark {
	if n < 1 {
		panic(fmt.Sprintf("bench: %s: thread count must be >= 1, got %d", b.name, n))
	}
	b.threads = append(b.threads, n)
	return b
}

// MinTime overrides the process-wide minimum measuring time in seconds.
func (b *Benchmark) MinTime(seconds float64) *Benchmark {
	if seconds < 0 {
		panic(fmt.Sprintf("bench: %s: negative min time", b.name))
	}
	b.minTime, b.hasMinTime = seconds, true
	return b
}

// MinWarmupTime overrides the process-wide warmup time in seconds. Zero
// disables warmup for this benchmark.
func (b *Benchmark) MinWarmupTime(seconds float64) *Benchmark {
	if seconds < 0 {
		panic(fmt.Sprintf("bench: %s: negative min warmup time", b.name))
	}
	b.minWarmupTime, b.hasMinWarmupTime = seconds, true
	return b
}

// Iterations fixes the iteration count and disables the adaptive search.
func (b *Benchmark) Iterations(n int64) *Benchmark {
	if n < 1 {
		panic(fmt.Sprintf("bench: %s: iterations must be >= 1", b.name))
	}
	b.iterations = n
	return b
}

// Repetitions overrides the process-wide repetition count.
func (b *Benchmark) Repetitions(n int) *Benchmark {
	if n < 1 {
		panic(fmt.Sprintf("bench: %s: repetitions must be >= 1", b.name))
	}
	b.repetitions = n
	return b
}

func (b *Benchmark) Unit(u TimeUnit) *Benchmark {
	b.unit, b.hasUnit = u, true
	return b
}

// UseRealTime bases the iteration search on wall-clock time.
func (b *Benchmark) UseRealTime() *Benchmark {
	if b.useManualTime {
		panic(fmt.Sprintf("bench: %s: real time and manual time are exclusive", b.name))
	}
	b.useRealTime = true
	return b
}

// UseManualTime bases timing on State.SetIterationTime.
func (b *Benchmark) UseManualTime() *Benchmark {
	if b.useRealTime {
		panic(fmt.Sprintf("bench: %s: real time and manual time are exclusive", b.name))
	}
	b.useManualTime = true
	return b
}

// MeasureProcessCPUTime measures cpu time of the whole process instead of
// the benchmark thread.
func (b *Benchmark) MeasureProcessCPUTime() *Benchmark {
	b.processCPUTime = true
	return b
}

// Complexity requests a curve fit across the family's instances.
func (b *Benchmark) Complexity(o BigO) *Benchmark {
	b.complexity = o
	return b
}

// ComplexityLambda fits against a custom curve.
func (b *Benchmark) ComplexityLambda(f ComplexityFunc) *Benchmark {
	b.complexity = OLambda
	b.complexityLambda = f
	return b
}

// ComputeStatistics adds an aggregate to the default list.
func (b *Benchmark) ComputeStatistics(name string, fn StatisticFunc, unit StatisticUnit) *Benchmark {
	b.statistics = append(b.statistics, Statistic{Name: name, Compute: fn, Unit: unit})
	return b
}

// ReportAggregatesOnly hides per-repetition runs from every reporter.
func (b *Benchmark) ReportAggregatesOnly(v bool) *Benchmark {
	b.setAggregation(ReportAggregatesOnly, v)
	return b
}

// DisplayAggregatesOnly hides per-repetition runs from the display reporter.
func (b *Benchmark) DisplayAggregatesOnly(v bool) *Benchmark {
	b.setAggregation(DisplayReportAggregatesOnly, v)
	return b
}

func (b *Benchmark) setAggregation(mode AggregationMode, on bool) {
	b.aggregationSet = true
	if on {
		b.aggregation |= mode
	} else {
		b.aggregation &^= mode
	}
}

func (b *Benchmark) Setup(h Hook) *Benchmark {
	b.setup = h
	return b
}

func (b *Benchmark) Teardown(h Hook) *Benchmark {
	b.teardown = h
	return b
}

// MemoryRequired sets the scratch arena size handed to each thread.
func (b *Benchmark) MemoryRequired(bytes int) *Benchmark {
	if bytes < 0 {
		panic(fmt.Sprintf("bench: %s: negative memory requirement", b.name))
	}
	b.memoryRequired = bytes
	return b
}

// Instances expands the benchmark into one instance per argument tuple
// and thread count.
func (b *Benchmark) Instances(familyIndex int) []*Instance {
	argSets := b.args
	if len(argSets) == 0 {
		argSets = [][]int64{nil}
	}
	threadCounts := b.threads
	if len(threadCounts) == 0 {
		threadCounts = []int{1}
	}

	out := make([]*Instance, 0, len(argSets)*len(threadCounts))
	for _, args := range argSets {
		for _, n := range threadCounts {
			inst := &Instance{
				FamilyIndex:            familyIndex,
				PerFamilyInstanceIndex: len(out),
				Args:                   args,
				Threads:                n,
				bench:                  b,
			}
			inst.Name = b.instanceName(args, n)
			out = append(out, inst)
		}
	}
	return out
}

func (b *Benchmark) instanceName(args []int64, threads int) Name {
	n := Name{FunctionName: b.name}
	for i, a := range args {
		if n.Args != "" {
			n.Args += "/"
		}
		if i < len(b.argNames) && b.argNames[i] != "" {
			n.Args += b.argNames[i] + ":"
		}
		n.Args += fmt.Sprintf("%d", a)
	}
	if b.hasMinTime {
		n.MinTime = fmt.Sprintf("min_time:%0.3f", b.minTime)
	}
	if b.hasMinWarmupTime {
		n.MinWarmupTime = fmt.Sprintf("min_warmup_time:%0.3f", b.minWarmupTime)
	}
	if b.iterations != 0 {
		n.Iterations = fmt.Sprintf("iterations:%d", b.iterations)
	}
	if b.repetitions != 0 {
		n.Repetitions = fmt.Sprintf("repeats:%d", b.repetitions)
	}
	if b.processCPUTime {
		n.TimeType = "process_time"
	}
	switch {
	case b.useManualTime:
		n.TimeType = joinName(n.TimeType, "manual_time")
	case b.useRealTime:
		n.TimeType = joinName(n.TimeType, "real_time")
	}
	if len(b.threads) > 0 {
		n.Threads = fmt.Sprintf("threads:%d", threads)
	}
	return n
}
