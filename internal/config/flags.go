package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crankbench",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	d := Defaults()

	// Measurement flags
	flags.Float64("min-time", d.MinTime, "Minimum seconds each repetition measures")
	flags.Float64("min-warmup-time", d.MinWarmupTime, "Seconds of untimed warmup before each repetition")
	flags.Int("repetitions", d.Repetitions, "Repetitions per benchmark instance")
	flags.Bool("report-aggregates-only", false, "Report only aggregates of repeated runs")
	flags.Bool("display-aggregates-only", false, "Display only aggregates of repeated runs; files still get every run")
	flags.Bool("enable-random-interleaving", false, "Interleave repetitions of all instances in random order")
	flags.Uint64("random-interleaving-seed", 0, "Seed for random interleaving (0 derives one from the clock)")
	flags.Float64("max-repetition-rate", 0, "Repetitions per second across the run (0 means unlimited)")

	// Selection flags
	flags.String("filter", d.Filter, "Regexp selecting benchmark instances (prefix with - to negate)")
	flags.Bool("list", false, "List matching benchmark instances and exit")

	// Output flags
	flags.String("time-unit", "", "Display time unit for benchmarks without their own: ns, us, ms or s")
	flags.String("format", d.Format, "Display format: console, json, yaml or csv")
	flags.String("out", "", "Write results to the specified file path")
	flags.String("out-format", d.OutFormat, "File format: console, json, yaml, csv or html")
	flags.String("prometheus-out", "", "Write results as a Prometheus textfile")
	flags.String("baseline", "", "Compare against a previous JSON report")
	flags.StringSlice("threshold", nil, "Performance thresholds (repeatable, e.g., 'BM_Sort/1024:cpu_time < 2ms')")
	flags.Bool("dashboard", false, "Show live terminal dashboard")
	flags.Bool("progress", false, "Print a progress line to stderr while running")
	flags.String("color", d.Color, "Colored console output: auto, always or never")

	// Logging flags
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
	flags.String("log-format", d.LogFormat, "Log format: text or json")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP endpoint for repetition spans")
	flags.String("tracing-protocol", d.Tracing.Protocol, "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", d.Tracing.SampleRate, "Fraction of repetitions traced")
	flags.String("tracing-service-name", "", "Service name reported with spans")

	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("min-time") {
		val, err := fs.GetFloat64("min-time")
		if err != nil {
			return err
		}
		cfg.MinTime = val
	}
	if fs.Changed("min-warmup-time") {
		val, err := fs.GetFloat64("min-warmup-time")
		if err != nil {
			return err
		}
		cfg.MinWarmupTime = val
	}
	if fs.Changed("repetitions") {
		val, err := fs.GetInt("repetitions")
		if err != nil {
			return err
		}
		cfg.Repetitions = val
	}
	if fs.Changed("report-aggregates-only") {
		val, err := fs.GetBool("report-aggregates-only")
		if err != nil {
			return err
		}
		cfg.ReportAggregatesOnly = val
	}
	if fs.Changed("display-aggregates-only") {
		val, err := fs.GetBool("display-aggregates-only")
		if err != nil {
			return err
		}
		cfg.DisplayAggregatesOnly = val
	}
	if fs.Changed("enable-random-interleaving") {
		val, err := fs.GetBool("enable-random-interleaving")
		if err != nil {
			return err
		}
		cfg.EnableRandomInterleaving = val
	}
	if fs.Changed("random-interleaving-seed") {
		val, err := fs.GetUint64("random-interleaving-seed")
		if err != nil {
			return err
		}
		cfg.RandomSeed = val
	}
	if fs.Changed("max-repetition-rate") {
		val, err := fs.GetFloat64("max-repetition-rate")
		if err != nil {
			return err
		}
		cfg.MaxRepetitionRate = val
	}
	if fs.Changed("filter") {
		val, err := fs.GetString("filter")
		if err != nil {
			return err
		}
		cfg.Filter = strings.TrimSpace(val)
	}
	if fs.Changed("list") {
		val, err := fs.GetBool("list")
		if err != nil {
			return err
		}
		cfg.List = val
	}
	if fs.Changed("time-unit") {
		val, err := fs.GetString("time-unit")
		if err != nil {
			return err
		}
		cfg.TimeUnit = strings.TrimSpace(val)
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("out") {
		val, err := fs.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(val)
	}
	if fs.Changed("out-format") {
		val, err := fs.GetString("out-format")
		if err != nil {
			return err
		}
		cfg.OutFormat = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("prometheus-out") {
		val, err := fs.GetString("prometheus-out")
		if err != nil {
			return err
		}
		cfg.PrometheusOut = strings.TrimSpace(val)
	}
	if fs.Changed("baseline") {
		val, err := fs.GetString("baseline")
		if err != nil {
			return err
		}
		cfg.Baseline = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("progress") {
		val, err := fs.GetBool("progress")
		if err != nil {
			return err
		}
		cfg.Progress = val
	}
	if fs.Changed("color") {
		val, err := fs.GetString("color")
		if err != nil {
			return err
		}
		cfg.Color = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(val))
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}

	return nil
}
