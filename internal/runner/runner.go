package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/complexity"
)

// ErrAborted is returned when a reporter declines the run context.
var ErrAborted = errors.New("runner: reporter aborted the run")

// Result captures execution summary.
type Result struct {
	RunID       string
	Seed        uint64
	Repetitions int
	Runs        []bench.Run // every run handed to the display reporter, in order
	Duration    time.Duration
}

// familyReports collects the repetitions of a complexity family until all
// of them are done.
type familyReports struct {
	runs  []bench.Run
	done  int
	total int
}

type runResults struct {
	nonAggregates         []bench.Run
	aggregates            []bench.Run
	displayAggregatesOnly bool
	fileAggregatesOnly    bool
}

// Runner executes benchmark instances and streams their runs to reporters.
type Runner struct {
	opt   Options
	pacer *repetitionPacer
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, pacer: newRepetitionPacer(opt)}
}

// Seed returns the interleaving seed in use.
func (r *Runner) Seed() uint64 { return r.opt.RandomSeed }

// Run executes every repetition of every instance. Cancelling ctx stops the
// run between repetitions; reporters are finalized either way.
func (r *Runner) Run(ctx context.Context, instances []*bench.Instance) (Result, error) {
	start := time.Now()
	res := Result{RunID: ulid.Make().String(), Seed: r.opt.RandomSeed}

	families := make(map[int]*familyReports)
	runners := make([]*instanceRunner, 0, len(instances))
	repeats := make([]int, 0, len(instances))
	for _, inst := range instances {
		var family *familyReports
		if inst.Complexity() != bench.ONone {
			family = families[inst.FamilyIndex]
			if family == nil {
				family = &familyReports{}
				families[inst.FamilyIndex] = family
			}
		}
		ir := newInstanceRunner(inst, r.opt, family)
		if family != nil {
			family.total += ir.repeats
		}
		runners = append(runners, ir)
		repeats = append(repeats, ir.repeats)
	}
	schedule := repetitionSchedule(repeats, r.opt.EnableRandomInterleaving, r.opt.RandomSeed)
	res.Repetitions = len(schedule)

	rc := r.context(res, runners)
	if !r.opt.Display.ReportContext(rc) || (r.opt.File != nil && !r.opt.File.ReportContext(rc)) {
		return res, errors.Join(ErrAborted, r.finalize())
	}
	if r.opt.Observer != nil {
		r.opt.Observer.Begin(len(instances), len(schedule))
	}
	r.opt.Logger.Info("starting benchmarks",
		"run_id", res.RunID,
		"instances", len(instances),
		"repetitions", len(schedule),
		"interleaved", r.opt.EnableRandomInterleaving,
		"seed", r.opt.RandomSeed,
	)

	var runErr error
	for _, idx := range schedule {
		if err := r.pacer.Wait(ctx); err != nil {
			runErr = err
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		ir := runners[idx]
		run := ir.doOneRepetition(ctx)
		if r.opt.Observer != nil {
			r.opt.Observer.RepetitionDone(run)
		}
		if ir.hasRepeatsRemaining() {
			continue
		}

		r.opt.Display.ReportRunsConfig(ir.minTime, ir.explicitIters, ir.iters)
		if r.opt.File != nil {
			r.opt.File.ReportRunsConfig(ir.minTime, ir.explicitIters, ir.iters)
		}
		results := ir.results()
		if fam := ir.family; fam != nil && fam.done == fam.total {
			results.aggregates = append(results.aggregates, complexity.ComputeBigO(fam.runs)...)
			delete(families, ir.inst.FamilyIndex)
		}
		shown := r.report(results)
		res.Runs = append(res.Runs, shown...)
		if r.opt.Observer != nil {
			r.opt.Observer.InstanceDone(shown)
		}
	}

	res.Duration = time.Since(start)
	if err := r.finalize(); err != nil {
		return res, errors.Join(runErr, err)
	}
	return res, runErr
}

// report hands one instance's runs to the reporters. A reporter asked for
// aggregates only still gets the raw runs when there are no aggregates.
// It returns what the display reporter received.
func (r *Runner) report(results runResults) []bench.Run {
	reportOne := func(rep Reporter, aggregatesOnly bool) []bench.Run {
		var shown []bench.Run
		aggregatesOnly = aggregatesOnly && len(results.aggregates) > 0
		if !aggregatesOnly {
			rep.ReportRuns(results.nonAggregates)
			shown = append(shown, results.nonAggregates...)
		}
		if len(results.aggregates) > 0 {
			rep.ReportRuns(results.aggregates)
			shown = append(shown, results.aggregates...)
		}
		return shown
	}
	shown := reportOne(r.opt.Display, results.displayAggregatesOnly)
	if r.opt.File != nil {
		reportOne(r.opt.File, results.fileAggregatesOnly)
	}
	return shown
}

func (r *Runner) finalize() error {
	var errs []error
	if err := r.opt.Display.Finalize(); err != nil {
		errs = append(errs, fmt.Errorf("display reporter: %w", err))
	}
	if r.opt.File != nil {
		if err := r.opt.File.Finalize(); err != nil {
			errs = append(errs, fmt.Errorf("file reporter: %w", err))
		}
	}
	return errors.Join(errs...)
}

// context builds the reporter context. The name column fits the longest
// instance name plus an aggregate suffix when aggregates are possible.
func (r *Runner) context(res Result, runners []*instanceRunner) Context {
	width := 10
	statWidth := 0
	mightHaveAggregates := r.opt.Repetitions > 1
	for _, ir := range runners {
		width = max(width, len(ir.inst.String()))
		mightHaveAggregates = mightHaveAggregates || ir.repeats > 1
		for _, st := range ir.statistics {
			statWidth = max(statWidth, len(st.Name))
		}
	}
	if mightHaveAggregates {
		width += 1 + statWidth
	}

	exe, _ := os.Executable()
	host, _ := os.Hostname()
	return Context{
		RunID:          res.RunID,
		Date:           time.Now(),
		Executable:     exe,
		Host:           host,
		NumCPUs:        runtime.NumCPU(),
		GOOS:           runtime.GOOS,
		GOARCH:         runtime.GOARCH,
		GoVersion:      runtime.Version(),
		Benchmarks:     len(runners),
		Repetitions:    res.Repetitions,
		Interleaved:    r.opt.EnableRandomInterleaving,
		Seed:           r.opt.RandomSeed,
		NameFieldWidth: width,
	}
}
