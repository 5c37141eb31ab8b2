package runner

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/pool"
	"github.com/torosent/crankbench/internal/timer"
	"github.com/torosent/crankbench/internal/tracing"
)

// MaxIterations is the hard ceiling on the iteration count of one probe.
const MaxIterations int64 = 1_000_000_000

// Options configure the Runner. Per-benchmark settings on an instance take
// precedence over the process-wide values here.
type Options struct {
	MinTime       float64 // seconds each repetition must measure at least
	MinWarmupTime float64 // seconds of warmup before each repetition (0 disables)
	Repetitions   int     // repetitions per instance

	ReportAggregatesOnly  bool // both reporters only see aggregates
	DisplayAggregatesOnly bool // the display reporter only sees aggregates

	EnableRandomInterleaving bool
	RandomSeed               uint64 // interleaving seed; 0 derives one from the clock

	TimeUnit    bench.TimeUnit
	HasTimeUnit bool // TimeUnit overrides the default for benchmarks without their own

	MaxRepetitionRate float64 // repetitions per second (0 means unlimited)

	Display  Reporter // required
	File     Reporter // optional
	Observer Observer

	Logger         *slog.Logger
	Tracer         trace.Tracer
	TimeSource     timer.TimeSource
	Pool           *pool.Pool
	LimiterFactory func(rps float64) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.MinTime < 0 {
		o.MinTime = 0
	}
	if o.MinWarmupTime < 0 {
		o.MinWarmupTime = 0
	}
	if o.Repetitions < 1 {
		o.Repetitions = 1
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = uint64(time.Now().UnixNano())
	}
	if o.MaxRepetitionRate < 0 {
		o.MaxRepetitionRate = 0
	}
	if o.Display == nil {
		o.Display = discardReporter{}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Tracer == nil {
		o.Tracer = tracing.Disabled()
	}
	if o.TimeSource == nil {
		o.TimeSource = timer.NewSystem()
	}
	if o.Pool == nil {
		o.Pool = pool.New(0)
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps float64) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}
