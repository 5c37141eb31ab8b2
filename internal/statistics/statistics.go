// Package statistics reduces the repetitions of one benchmark instance into
// aggregate runs.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
)

// Mean returns the arithmetic mean, or 0 for no samples.
func Mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// Median returns the middle sample. Fewer than three samples fall back to
// the mean; an even count averages the two central samples.
func Median(v []float64) float64 {
	if len(v) < 3 {
		return Mean(v)
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// StdDev returns the sample standard deviation, or 0 for fewer than two
// samples.
func StdDev(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	mean := Mean(v)
	var sq float64
	for _, x := range v {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(v)-1))
}

// CV returns the coefficient of variation, stddev/mean.
func CV(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	return StdDev(v) / Mean(v)
}

// Defaults is the statistic list every benchmark reports.
func Defaults() []bench.Statistic {
	return []bench.Statistic{
		{Name: "mean", Compute: Mean, Unit: bench.UnitTime},
		{Name: "median", Compute: Median, Unit: bench.UnitTime},
		{Name: "stddev", Compute: StdDev, Unit: bench.UnitTime},
		{Name: "cv", Compute: CV, Unit: bench.UnitPercentage},
	}
}

type counterSeries struct {
	counter counters.Counter
	values  []float64
}

// ComputeStats returns one aggregate run per statistic. It returns nil when
// fewer than two repetitions were not skipped.
//
// All reports must share a benchmark name and iteration count, and counters
// of the same name must carry the same flags; anything else panics.
func ComputeStats(reports []bench.Run, stats []bench.Statistic) []bench.Run {
	skipped := 0
	for _, r := range reports {
		if r.Skipped != bench.NotSkipped {
			skipped++
		}
	}
	if len(reports)-skipped < 2 {
		return nil
	}

	first := reports[0]
	runIterations := first.Iterations

	series := map[string]*counterSeries{}
	for _, r := range reports {
		for name, c := range r.Counters {
			s, ok := series[name]
			if !ok {
				series[name] = &counterSeries{counter: c, values: make([]float64, 0, len(reports))}
				continue
			}
			if s.counter.Flags != c.Flags {
				panic(fmt.Sprintf("statistics: counter %q flags differ across repetitions: %#x vs %#x", name, uint32(s.counter.Flags), uint32(c.Flags)))
			}
		}
	}

	realTimes := make([]float64, 0, len(reports))
	cpuTimes := make([]float64, 0, len(reports))
	for _, r := range reports {
		if r.BenchmarkName() != first.BenchmarkName() {
			panic(fmt.Sprintf("statistics: mixed benchmarks %q and %q", first.BenchmarkName(), r.BenchmarkName()))
		}
		if r.Iterations != runIterations {
			panic(fmt.Sprintf("statistics: %s: repetition ran %d iterations, want %d", r.BenchmarkName(), r.Iterations, runIterations))
		}
		if r.Skipped != bench.NotSkipped {
			continue
		}
		realTimes = append(realTimes, r.RealAccumulatedTime)
		cpuTimes = append(cpuTimes, r.CPUAccumulatedTime)
		for name, c := range r.Counters {
			series[name].values = append(series[name].values, c.Value)
		}
	}

	labelFormat, labelValue := first.LabelFormat, first.LabelValue
	for _, r := range reports[1:] {
		if r.LabelFormat != labelFormat || r.LabelValue != labelValue {
			labelFormat, labelValue = "", 0
			break
		}
	}

	// Each repetition's time is a sum over its iterations; the aggregate is
	// reported over len(reports) samples instead.
	rescale := float64(len(reports)) / float64(runIterations)

	out := make([]bench.Run, 0, len(stats))
	for _, st := range stats {
		agg := bench.Run{
			Name:                   first.Name,
			FamilyIndex:            first.FamilyIndex,
			PerFamilyInstanceIndex: first.PerFamilyInstanceIndex,
			Type:                   bench.RunAggregate,
			AggregateName:          st.Name,
			AggregateUnit:          st.Unit,
			LabelFormat:            labelFormat,
			LabelValue:             labelValue,
			Iterations:             int64(len(reports)),
			Threads:                first.Threads,
			Repetitions:            first.Repetitions,
			RepetitionIndex:        bench.NoRepetitionIndex,
			TimeUnit:               first.TimeUnit,
			RealAccumulatedTime:    st.Compute(realTimes),
			CPUAccumulatedTime:     st.Compute(cpuTimes),
		}
		if st.Unit == bench.UnitTime {
			agg.RealAccumulatedTime *= rescale
			agg.CPUAccumulatedTime *= rescale
		}
		if len(series) > 0 {
			agg.Counters = make(counters.Set, len(series))
			for name, s := range series {
				agg.Counters[name] = counters.Counter{Value: st.Compute(s.values), Flags: s.counter.Flags, OneK: s.counter.OneK}
			}
		}
		out = append(out, agg)
	}
	return out
}
