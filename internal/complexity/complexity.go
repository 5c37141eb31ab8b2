// Package complexity fits the timings of a benchmark family against
// asymptotic growth curves.
package complexity

import (
	"fmt"
	"math"

	"github.com/torosent/crankbench/internal/bench"
)

// Curve is a growth curve: one of the built-in kinds, or OLambda with a
// caller supplied function.
type Curve struct {
	Kind   bench.BigO
	Lambda bench.ComplexityFunc
}

// Eval returns the curve's value at n.
func (c Curve) Eval(n int64) float64 {
	x := float64(n)
	switch c.Kind {
	case bench.ON:
		return x
	case bench.ONSquared:
		return x * x
	case bench.ONCubed:
		return x * x * x
	case bench.OLogN:
		return math.Log2(x)
	case bench.ONLogN:
		return x * math.Log2(x)
	case bench.OLambda:
		if c.Lambda == nil {
			panic("complexity: lambda curve without a function")
		}
		return c.Lambda(n)
	default:
		return 1
	}
}

// autoCandidates are tried after O(1), in this order, when the curve is
// chosen automatically.
var autoCandidates = []bench.BigO{bench.OLogN, bench.ON, bench.ONLogN, bench.ONSquared, bench.ONCubed}

// LeastSq is the result of a single-coefficient fit.
type LeastSq struct {
	Coef       float64
	RMS        float64
	Complexity bench.BigO
}

// FitCurve fits time ≈ coef·curve(n). RMS is normalized by the mean time.
func FitCurve(n []int64, times []float64, c Curve) LeastSq {
	var sumGG, sumT, sumTG float64
	for i := range n {
		g := c.Eval(n[i])
		sumGG += g * g
		sumT += times[i]
		sumTG += times[i] * g
	}
	res := LeastSq{Complexity: c.Kind, Coef: sumTG / sumGG}

	var sq float64
	for i := range n {
		d := times[i] - res.Coef*c.Eval(n[i])
		sq += d * d
	}
	mean := sumT / float64(len(n))
	res.RMS = math.Sqrt(sq/float64(len(n))) / mean
	return res
}

// MinimalLeastSq fits against the requested curve. OAuto tries every
// built-in curve and keeps the lowest RMS, starting from O(1).
func MinimalLeastSq(n []int64, times []float64, kind bench.BigO, lambda bench.ComplexityFunc) LeastSq {
	if len(n) != len(times) {
		panic(fmt.Sprintf("complexity: %d sizes for %d timings", len(n), len(times)))
	}
	if len(n) < 2 {
		panic("complexity: at least two points are needed for a fit")
	}
	if kind == bench.ONone {
		panic("complexity: no curve requested")
	}
	if kind != bench.OAuto {
		return FitCurve(n, times, Curve{Kind: kind, Lambda: lambda})
	}

	best := FitCurve(n, times, Curve{Kind: bench.O1})
	for _, k := range autoCandidates {
		if cur := FitCurve(n, times, Curve{Kind: k}); cur.RMS < best.RMS {
			best = cur
		}
	}
	return best
}

// ComputeBigO returns the BigO and RMS runs for a family, or nil when fewer
// than two of its runs were not skipped. Every run must declare a
// complexity N greater than zero.
func ComputeBigO(reports []bench.Run) []bench.Run {
	if len(reports) < 2 {
		return nil
	}

	var (
		n        []int64
		realTime []float64
		cpuTime  []float64
	)
	for _, r := range reports {
		if r.Skipped != bench.NotSkipped {
			continue
		}
		if r.ComplexityN <= 0 {
			panic(fmt.Sprintf("complexity: %s has no complexity N; call SetComplexityN", r.BenchmarkName()))
		}
		n = append(n, r.ComplexityN)
		realTime = append(realTime, r.RealAccumulatedTime/float64(r.Iterations))
		cpuTime = append(cpuTime, r.CPUAccumulatedTime/float64(r.Iterations))
	}
	if len(n) < 2 {
		return nil
	}

	first := reports[0]
	var fitCPU, fitReal LeastSq
	switch {
	case first.Complexity == bench.OLambda:
		fitCPU = MinimalLeastSq(n, cpuTime, bench.OLambda, first.ComplexityLambda)
		fitReal = MinimalLeastSq(n, realTime, bench.OLambda, first.ComplexityLambda)
	case first.FitRealTimeFirst:
		fitReal = MinimalLeastSq(n, realTime, first.Complexity, nil)
		fitCPU = MinimalLeastSq(n, cpuTime, fitReal.Complexity, nil)
	default:
		fitCPU = MinimalLeastSq(n, cpuTime, first.Complexity, nil)
		fitReal = MinimalLeastSq(n, realTime, fitCPU.Complexity, nil)
	}

	name := first.Name
	name.Args = ""

	bigO := bench.Run{
		Name:                   name,
		FamilyIndex:            first.FamilyIndex,
		PerFamilyInstanceIndex: first.PerFamilyInstanceIndex,
		Type:                   bench.RunAggregate,
		AggregateName:          "BigO",
		AggregateUnit:          bench.UnitTime,
		LabelFormat:            first.LabelFormat,
		LabelValue:             first.LabelValue,
		Threads:                first.Threads,
		Repetitions:            first.Repetitions,
		RepetitionIndex:        bench.NoRepetitionIndex,
		TimeUnit:               first.TimeUnit,
		RealAccumulatedTime:    fitReal.Coef,
		CPUAccumulatedTime:     fitCPU.Coef,
		Complexity:             fitCPU.Complexity,
		ReportBigO:             true,
	}

	// RMS is relative; reporters multiply every time by the unit, so
	// divide it out here.
	mult := first.TimeUnit.Multiplier()
	rms := bigO
	rms.AggregateName = "RMS"
	rms.AggregateUnit = bench.UnitPercentage
	rms.RealAccumulatedTime = fitReal.RMS / mult
	rms.CPUAccumulatedTime = fitCPU.RMS / mult
	rms.ReportBigO = false
	rms.ReportRMS = true

	return []bench.Run{bigO, rms}
}
