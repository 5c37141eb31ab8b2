package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
	"github.com/torosent/crankbench/internal/pool"
	"github.com/torosent/crankbench/internal/statistics"
	"github.com/torosent/crankbench/internal/timer"
	"github.com/torosent/crankbench/internal/tracing"
)

// phase is the position of an instance in its iteration search.
type phase int

const (
	phaseNeedsWarmup phase = iota
	phaseWarmingUp
	phaseWarmupDone
	phaseProbing
	phaseSettled
)

func (p phase) String() string {
	switch p {
	case phaseNeedsWarmup:
		return "needs_warmup"
	case phaseWarmingUp:
		return "warming_up"
	case phaseWarmupDone:
		return "warmup_done"
	case phaseProbing:
		return "probing"
	default:
		return "settled"
	}
}

// instanceRunner owns one instance for the lifetime of its repetitions.
// Only the iteration count found by the first repetition carries over to
// the next ones.
type instanceRunner struct {
	inst *bench.Instance

	minTime       float64
	minWarmupTime float64
	repeats       int
	explicitIters bool
	iters         int64
	unit          bench.TimeUnit
	statistics    []bench.Statistic

	displayAggregatesOnly bool
	fileAggregatesOnly    bool

	phase      phase
	warmupDone bool

	repetitionsDone int
	nonAggregates   []bench.Run
	family          *familyReports

	src    timer.TimeSource
	pool   *pool.Pool
	logger *slog.Logger
	tracer trace.Tracer
}

func newInstanceRunner(inst *bench.Instance, opt Options, family *familyReports) *instanceRunner {
	r := &instanceRunner{
		inst:       inst,
		minTime:    opt.MinTime,
		repeats:    opt.Repetitions,
		iters:      1,
		unit:       bench.DefaultTimeUnit,
		statistics: append(statistics.Defaults(), inst.Statistics()...),
		family:     family,
		src:        opt.TimeSource,
		pool:       opt.Pool,
		logger:     opt.Logger.With("benchmark", inst.String()),
		tracer:     opt.Tracer,
	}
	if v, ok := inst.MinTime(); ok {
		r.minTime = v
	}
	r.minWarmupTime = opt.MinWarmupTime
	if v, ok := inst.MinWarmupTime(); ok {
		r.minWarmupTime = v
	}
	if n := inst.Repetitions(); n > 0 {
		r.repeats = n
	}
	if n := inst.Iterations(); n > 0 {
		r.explicitIters = true
		r.iters = min(n, MaxIterations)
	}
	if opt.HasTimeUnit {
		r.unit = opt.TimeUnit
	}
	if u, ok := inst.TimeUnit(); ok {
		r.unit = u
	}

	r.displayAggregatesOnly = opt.ReportAggregatesOnly || opt.DisplayAggregatesOnly
	r.fileAggregatesOnly = opt.ReportAggregatesOnly
	if mode, ok := inst.AggregationMode(); ok {
		r.displayAggregatesOnly = mode&bench.DisplayReportAggregatesOnly != 0
		r.fileAggregatesOnly = mode&bench.FileReportAggregatesOnly != 0
	}
	return r
}

func (r *instanceRunner) hasRepeatsRemaining() bool { return r.repetitionsDone < r.repeats }

func (r *instanceRunner) minTimeToApply() float64 {
	if r.warmupDone {
		return r.minTime
	}
	return r.minWarmupTime
}

// predictNumItersNeeded aims 40% past the threshold. Probes that did not
// use more than a tenth of the threshold grow by at most 10x; a probe at
// exactly 10% still counts as insignificant.
func (r *instanceRunner) predictNumItersNeeded(res iterationResult) int64 {
	threshold := r.minTimeToApply()
	multiplier := threshold * 1.4 / math.Max(res.seconds, 1e-9)
	if significant := res.seconds/threshold > 0.1; !significant {
		multiplier = math.Min(multiplier, 10)
	}
	next := math.Round(math.Max(multiplier*float64(res.iters), float64(res.iters)+1))
	if next >= float64(MaxIterations) {
		return MaxIterations
	}
	return int64(next)
}

// shouldReportIterationResults reports whether the probe settles the search.
func (r *instanceRunner) shouldReportIterationResults(res iterationResult) bool {
	threshold := r.minTimeToApply()
	return res.results.Skipped != bench.NotSkipped ||
		res.iters >= MaxIterations ||
		res.seconds >= threshold ||
		// A cpu-timed benchmark whose wall clock already ran far past the
		// threshold is settled too.
		(res.results.RealTimeUsed >= 5*threshold && !r.inst.UseManualTime())
}

func (r *instanceRunner) setPhase(p phase, iters int64, seconds float64) {
	r.phase = p
	r.logger.Debug("phase", "phase", p.String(), "iters", iters, "seconds", seconds)
}

func (r *instanceRunner) probe(ctx context.Context, iters int64) iterationResult {
	_, span := tracing.StartProbeSpan(ctx, r.tracer, r.phase.String(), iters)
	res := r.doNIterations(iters)
	tracing.EndSpan(span, skipError(res.results),
		attribute.Float64("crankbench.seconds", res.seconds),
	)
	return res
}

// runWarmup searches with the warmup threshold and then forgets the
// iteration count it found.
func (r *instanceRunner) runWarmup(ctx context.Context) {
	r.setPhase(phaseWarmingUp, r.iters, 0)
	backup := r.iters
	for {
		res := r.probe(ctx, r.iters)
		if r.shouldReportIterationResults(res) {
			r.warmupDone = true
			r.iters = backup
			r.setPhase(phaseWarmupDone, res.iters, res.seconds)
			return
		}
		r.iters = r.nextIters(res)
	}
}

func (r *instanceRunner) nextIters(res iterationResult) int64 {
	next := r.predictNumItersNeeded(res)
	if next <= res.iters {
		panic(fmt.Sprintf("runner: %s: iteration count did not grow (%d -> %d)", r.inst, res.iters, next))
	}
	return next
}

// doOneRepetition runs setup, the optional warmup, the iteration search
// and teardown, and records the settled probe.
func (r *instanceRunner) doOneRepetition(ctx context.Context) bench.Run {
	if !r.hasRepeatsRemaining() {
		panic(fmt.Sprintf("runner: %s: all %d repetitions already done", r.inst, r.repeats))
	}
	first := r.repetitionsDone == 0

	ctx, span := tracing.StartRepetitionSpan(ctx, r.tracer, r.inst.String(), r.repetitionsDone, r.inst.Threads)

	r.inst.RunSetup()
	r.warmupDone = !(r.minWarmupTime > 0)
	r.phase = phaseNeedsWarmup
	if !r.warmupDone {
		r.runWarmup(ctx)
	} else {
		r.setPhase(phaseWarmupDone, r.iters, 0)
	}

	r.setPhase(phaseProbing, r.iters, 0)
	var res iterationResult
	for {
		res = r.probe(ctx, r.iters)
		// Later repetitions reuse the count settled by the first one.
		if !first || r.explicitIters || r.shouldReportIterationResults(res) {
			break
		}
		r.iters = r.nextIters(res)
	}
	r.setPhase(phaseSettled, res.iters, res.seconds)
	r.inst.RunTeardown()

	run := r.createRunReport(res, r.repetitionsDone)
	if run.Skipped != bench.NotSkipped {
		r.logger.Warn("benchmark skipped", "reason", run.SkipMessage, "error", run.Skipped == bench.SkippedWithError)
	}
	if r.family != nil {
		r.family.done++
		if run.Skipped == bench.NotSkipped {
			r.family.runs = append(r.family.runs, run)
		}
	}
	r.nonAggregates = append(r.nonAggregates, run)
	r.repetitionsDone++

	tracing.EndSpan(span, skipError(res.results),
		attribute.Int64("crankbench.iterations", run.Iterations),
		attribute.Float64("crankbench.real_time", run.AdjustedRealTime()),
		attribute.Float64("crankbench.cpu_time", run.AdjustedCPUTime()),
	)
	r.logger.Debug("repetition done", "repetition", run.RepetitionIndex, "iterations", run.Iterations)
	return run
}

// createRunReport turns the settled probe into the reported run.
func (r *instanceRunner) createRunReport(res iterationResult, repetition int) bench.Run {
	results := res.results
	run := bench.Run{
		Name:                   r.inst.Name,
		FamilyIndex:            r.inst.FamilyIndex,
		PerFamilyInstanceIndex: r.inst.PerFamilyInstanceIndex,
		Type:                   bench.RunIteration,
		LabelFormat:            results.LabelFormat,
		LabelValue:             results.LabelValue,
		Skipped:                results.Skipped,
		SkipMessage:            results.SkipMessage,
		Iterations:             results.Iterations,
		Threads:                r.inst.Threads,
		Repetitions:            r.repeats,
		RepetitionIndex:        repetition,
		TimeUnit:               r.unit,
	}
	if run.Skipped != bench.NotSkipped {
		return run
	}

	run.RealAccumulatedTime = results.RealTimeUsed
	if r.inst.UseManualTime() {
		run.RealAccumulatedTime = results.ManualTimeUsed
	}
	run.CPUAccumulatedTime = results.CPUTimeUsed
	run.FitRealTimeFirst = r.inst.UseManualTime() || r.inst.UseRealTime()
	run.ComplexityN = results.ComplexityN
	run.Complexity = r.inst.Complexity()
	run.ComplexityLambda = r.inst.ComplexityLambda()
	run.Counters = results.Counters.Clone()
	counters.Finish(run.Counters, results.Iterations, res.seconds, float64(r.inst.Threads))
	mem := results.Memory
	run.Memory = &mem
	return run
}

// results computes the aggregates once every repetition is done.
func (r *instanceRunner) results() runResults {
	if r.hasRepeatsRemaining() {
		panic(fmt.Sprintf("runner: %s: results requested with repetitions remaining", r.inst))
	}
	return runResults{
		nonAggregates:         r.nonAggregates,
		aggregates:            statistics.ComputeStats(r.nonAggregates, r.statistics),
		displayAggregatesOnly: r.displayAggregatesOnly,
		fileAggregatesOnly:    r.fileAggregatesOnly,
	}
}

func skipError(res bench.ThreadResult) error {
	if res.Skipped != bench.SkippedWithError {
		return nil
	}
	return errors.New(res.SkipMessage)
}
