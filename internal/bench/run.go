package bench

import (
	"fmt"

	"github.com/torosent/crankbench/internal/alloc"
	"github.com/torosent/crankbench/internal/counters"
)

// ThreadResult is what one thread measured during one probe.
type ThreadResult struct {
	Iterations     int64
	RealTimeUsed   float64
	CPUTimeUsed    float64
	ManualTimeUsed float64
	ComplexityN    int64
	Counters       counters.Set
	Skipped        Skipped
	SkipMessage    string
	LabelFormat    string
	LabelValue     float64
	Memory         alloc.Stats
}

// Collect reads the finished state and stopped timer of one thread.
func Collect(st *State, mem alloc.Stats) ThreadResult {
	format, value := st.Label()
	return ThreadResult{
		Iterations:     st.Iterations(),
		RealTimeUsed:   st.timer.RealTimeUsed(),
		CPUTimeUsed:    st.timer.CPUTimeUsed(),
		ManualTimeUsed: st.timer.ManualTimeUsed(),
		ComplexityN:    st.ComplexityN(),
		Counters:       st.Counters,
		Skipped:        st.Skipped(),
		SkipMessage:    st.SkipMessage(),
		LabelFormat:    format,
		LabelValue:     value,
		Memory:         mem,
	}
}

// Merge folds another thread's result into r. The first skip and the
// first label win.
func (r *ThreadResult) Merge(o ThreadResult) {
	r.Iterations += o.Iterations
	r.RealTimeUsed += o.RealTimeUsed
	r.CPUTimeUsed += o.CPUTimeUsed
	r.ManualTimeUsed += o.ManualTimeUsed
	r.ComplexityN += o.ComplexityN
	counters.Increment(&r.Counters, o.Counters)
	if r.Skipped == NotSkipped && o.Skipped != NotSkipped {
		r.Skipped = o.Skipped
		r.SkipMessage = o.SkipMessage
	}
	if r.LabelFormat == "" && o.LabelFormat != "" {
		r.LabelFormat = o.LabelFormat
		r.LabelValue = o.LabelValue
	}
	r.Memory.Add(o.Memory)
}

// RunType separates raw repetitions from derived aggregates.
type RunType int

const (
	RunIteration RunType = iota
	RunAggregate
)

func (t RunType) String() string {
	if t == RunAggregate {
		return "aggregate"
	}
	return "iteration"
}

// NoRepetitionIndex marks runs that are not a single repetition.
const NoRepetitionIndex = -1

// Run is one reported measurement.
type Run struct {
	Name                   Name
	FamilyIndex            int
	PerFamilyInstanceIndex int
	Type                   RunType
	AggregateName          string
	AggregateUnit          StatisticUnit

	LabelFormat string
	LabelValue  float64

	Skipped     Skipped
	SkipMessage string

	// Iterations is the total across threads.
	Iterations      int64
	Threads         int
	Repetitions     int
	RepetitionIndex int
	TimeUnit        TimeUnit

	// Accumulated times are in seconds, summed over all iterations.
	RealAccumulatedTime float64
	CPUAccumulatedTime  float64

	ComplexityN      int64
	Complexity       BigO
	ComplexityLambda ComplexityFunc
	// FitRealTimeFirst picks the curve from the real time series when the
	// benchmark is timed by wall clock or manually.
	FitRealTimeFirst bool
	ReportBigO       bool
	ReportRMS        bool

	Counters counters.Set
	Memory   *alloc.Stats
}

// BenchmarkName is the instance name plus the aggregate suffix.
func (r Run) BenchmarkName() string {
	name := r.Name.String()
	if r.Type == RunAggregate && r.AggregateName != "" {
		name += "_" + r.AggregateName
	}
	return name
}

// Label renders the numeric label, or "" when none was set.
func (r Run) Label() string {
	if r.LabelFormat == "" {
		return ""
	}
	return fmt.Sprintf(r.LabelFormat, r.LabelValue)
}

// AdjustedRealTime is the real time per iteration in the run's unit.
func (r Run) AdjustedRealTime() float64 {
	return r.adjust(r.RealAccumulatedTime)
}

// AdjustedCPUTime is the cpu time per iteration in the run's unit.
func (r Run) AdjustedCPUTime() float64 {
	return r.adjust(r.CPUAccumulatedTime)
}

func (r Run) adjust(seconds float64) float64 {
	v := seconds * r.TimeUnit.Multiplier()
	if r.Iterations != 0 {
		v /= float64(r.Iterations)
	}
	return v
}
