package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/crankbench/internal/baseline"
	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/config"
	"github.com/torosent/crankbench/internal/dashboard"
	"github.com/torosent/crankbench/internal/logging"
	"github.com/torosent/crankbench/internal/metrics"
	"github.com/torosent/crankbench/internal/output"
	"github.com/torosent/crankbench/internal/registry"
	"github.com/torosent/crankbench/internal/runner"
	"github.com/torosent/crankbench/internal/threshold"
	"github.com/torosent/crankbench/internal/tracing"
	"github.com/torosent/crankbench/internal/workloads"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err := output.SetColor(cfg.Color); err != nil {
		return err
	}

	reg := registry.New()
	if err := workloads.Register(reg); err != nil {
		return err
	}
	instances, err := reg.Instances(cfg.Filter)
	if err != nil {
		return err
	}
	if cfg.List {
		printInstances(os.Stdout, instances)
		return nil
	}
	if len(instances) == 0 {
		return fmt.Errorf("no benchmark matches filter %q", cfg.Filter)
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	var base *baseline.Baseline
	if cfg.Baseline != "" {
		if base, err = baseline.Load(cfg.Baseline); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	collector := metrics.NewCollector()

	// The dashboard owns the terminal, so console output is held back until
	// it closes.
	var display io.Writer = os.Stdout
	var held bytes.Buffer
	if cfg.Dashboard {
		display = &held
	}
	displayReporter, err := output.NewReporter(cfg.Format, display, false)
	if err != nil {
		return err
	}

	var recorder *output.Recorder
	if cfg.Out != "" {
		recorder = &output.Recorder{}
	}

	opts, err := runnerOptions(cfg, logger)
	if err != nil {
		return err
	}
	opts.Display = displayReporter
	if recorder != nil {
		opts.File = recorder
	}
	opts.Observer = collector
	opts.Tracer = provider.Tracer()

	r := runner.New(opts)

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboardConfig(cfg, len(instances), r.Seed()), cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if cfg.Progress && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stderr)
		progress.Start()
	}

	result, runErr := r.Run(ctx, instances)

	if dash != nil {
		dash.Stop()
		if _, err := held.WriteTo(os.Stdout); err != nil {
			return err
		}
	}
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stderr)
	}
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		fmt.Fprintln(os.Stderr, "Interrupted: reporting completed benchmarks only.")
	}

	stats := collector.Stats(result.Duration)
	if cfg.Format == config.FormatConsole {
		output.PrintReport(os.Stdout, stats)
	}

	var results []threshold.Result
	if len(thresholds) > 0 {
		results = threshold.NewEvaluator(thresholds).Evaluate(result.Runs)
		printThresholds(os.Stdout, results)
	}

	if base != nil {
		baseline.Print(os.Stdout, base.Compare(result.Runs))
	}

	if recorder != nil {
		extra := output.HTMLExtras{Stats: &stats, Thresholds: results}
		writeCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		err := output.WriteFile(writeCtx, cfg.Out, func(w *bufio.Writer) error {
			return output.Encode(w, cfg.OutFormat, recorder.Document(), extra)
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", cfg.Out, err)
		}
		logger.Info("report written", "path", cfg.Out, "format", cfg.OutFormat)
	}

	if cfg.PrometheusOut != "" {
		if err := output.WritePrometheus(cfg.PrometheusOut, result.Runs); err != nil {
			return err
		}
		logger.Info("prometheus textfile written", "path", cfg.PrometheusOut)
	}

	if failed := threshold.Failed(results); failed > 0 {
		return fmt.Errorf("%d threshold(s) failed", failed)
	}
	return nil
}

// runnerOptions maps the process-wide settings onto runner.Options. The
// reporters and observers are left for the caller.
func runnerOptions(cfg *config.Config, logger *slog.Logger) (runner.Options, error) {
	opts := runner.Options{
		MinTime:                  cfg.MinTime,
		MinWarmupTime:            cfg.MinWarmupTime,
		Repetitions:              cfg.Repetitions,
		ReportAggregatesOnly:     cfg.ReportAggregatesOnly,
		DisplayAggregatesOnly:    cfg.DisplayAggregatesOnly,
		EnableRandomInterleaving: cfg.EnableRandomInterleaving,
		RandomSeed:               cfg.RandomSeed,
		MaxRepetitionRate:        cfg.MaxRepetitionRate,
		Logger:                   logger,
	}
	if cfg.HasTimeUnit() {
		unit, err := cfg.Unit()
		if err != nil {
			return runner.Options{}, err
		}
		opts.TimeUnit = unit
		opts.HasTimeUnit = true
	}
	return opts, nil
}

func dashboardConfig(cfg *config.Config, benchmarks int, seed uint64) dashboard.RunConfig {
	rc := dashboard.RunConfig{
		Benchmarks:        benchmarks,
		Repetitions:       cfg.Repetitions,
		MinTime:           cfg.MinTime,
		MinWarmupTime:     cfg.MinWarmupTime,
		Interleaved:       cfg.EnableRandomInterleaving,
		MaxRepetitionRate: cfg.MaxRepetitionRate,
		Filter:            cfg.Filter,
		ConfigFile:        cfg.ConfigFile,
	}
	if rc.Interleaved {
		rc.Seed = seed
	}
	return rc
}

func printInstances(w io.Writer, instances []*bench.Instance) {
	for _, inst := range instances {
		fmt.Fprintln(w, inst.Name.String())
	}
}

func printThresholds(w io.Writer, results []threshold.Result) {
	fmt.Fprintln(w, "\n--- Thresholds ---")
	for _, res := range results {
		fmt.Fprintf(w, "  %s\n", res.Message)
	}
}
