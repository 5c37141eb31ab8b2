package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Filter) == "" {
		cfg.Filter = "."
	}

	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "min_time", "min-time", "mintime"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("min_time: %w", err)
		}
		cfg.MinTime = val
	}
	if raw, ok := lookupSetting(settings, "min_warmup_time", "min-warmup-time", "minwarmuptime"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("min_warmup_time: %w", err)
		}
		cfg.MinWarmupTime = val
	}
	if raw, ok := lookupSetting(settings, "repetitions"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("repetitions: %w", err)
		}
		cfg.Repetitions = val
	}
	if raw, ok := lookupSetting(settings, "report_aggregates_only", "report-aggregates-only"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("report_aggregates_only: %w", err)
		}
		cfg.ReportAggregatesOnly = val
	}
	if raw, ok := lookupSetting(settings, "display_aggregates_only", "display-aggregates-only"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("display_aggregates_only: %w", err)
		}
		cfg.DisplayAggregatesOnly = val
	}
	if raw, ok := lookupSetting(settings, "enable_random_interleaving", "enable-random-interleaving"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("enable_random_interleaving: %w", err)
		}
		cfg.EnableRandomInterleaving = val
	}
	if raw, ok := lookupSetting(settings, "random_interleaving_seed", "random-interleaving-seed"); ok {
		val, err := asUint64(raw)
		if err != nil {
			return fmt.Errorf("random_interleaving_seed: %w", err)
		}
		cfg.RandomSeed = val
	}
	if raw, ok := lookupSetting(settings, "max_repetition_rate", "max-repetition-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("max_repetition_rate: %w", err)
		}
		cfg.MaxRepetitionRate = val
	}

	if raw, ok := lookupSetting(settings, "filter"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		cfg.Filter = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "time_unit", "time-unit", "timeunit"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("time_unit: %w", err)
		}
		cfg.TimeUnit = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		if val != "" {
			cfg.Format = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(settings, "out"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("out: %w", err)
		}
		cfg.Out = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "out_format", "out-format", "outformat"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("out_format: %w", err)
		}
		if val != "" {
			cfg.OutFormat = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(settings, "prometheus_out", "prometheus-out"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("prometheus_out: %w", err)
		}
		cfg.PrometheusOut = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "baseline"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
		cfg.Baseline = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "thresholds", "threshold"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = val
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}
	if raw, ok := lookupSetting(settings, "progress"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}
		cfg.Progress = val
	}
	if raw, ok := lookupSetting(settings, "color"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("color: %w", err)
		}
		if val != "" {
			cfg.Color = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(settings, "log_level", "log-level", "loglevel"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		if val != "" {
			cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(settings, "log_format", "log-format", "logformat"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("log_format: %w", err)
		}
		if val != "" {
			cfg.LogFormat = strings.ToLower(strings.TrimSpace(val))
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tc, err := parseTracingConfig(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tc
	}

	return nil
}

// parseTracingConfig overlays a tracing section on base.
func parseTracingConfig(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	return buildTracingConfig(settings, base)
}

func buildTracingConfig(settings map[string]interface{}, tc TracingConfig) (TracingConfig, error) {
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
		tc.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
		if val != "" {
			tc.Protocol = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
		tc.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "sample-rate", "samplerate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
		tc.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "service_name", "service-name", "servicename"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
		tc.ServiceName = strings.TrimSpace(val)
	}
	return tc, nil
}
