package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/logging"
	"github.com/torosent/crankbench/internal/registry"
)

// Output formats accepted by --format and --out-format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatCSV     = "csv"
	FormatHTML    = "html"
)

// Color modes accepted by --color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	MinTime       float64 `mapstructure:"min_time"`
	MinWarmupTime float64 `mapstructure:"min_warmup_time"`
	Repetitions   int     `mapstructure:"repetitions"`

	ReportAggregatesOnly  bool `mapstructure:"report_aggregates_only"`
	DisplayAggregatesOnly bool `mapstructure:"display_aggregates_only"`

	EnableRandomInterleaving bool   `mapstructure:"enable_random_interleaving"`
	RandomSeed               uint64 `mapstructure:"random_interleaving_seed"`

	Filter   string `mapstructure:"filter"`
	TimeUnit string `mapstructure:"time_unit"`
	Format   string `mapstructure:"format"`

	Out           string   `mapstructure:"out"`
	OutFormat     string   `mapstructure:"out_format"`
	PrometheusOut string   `mapstructure:"prometheus_out"`
	Baseline      string   `mapstructure:"baseline"`
	Thresholds    []string `mapstructure:"thresholds"`

	MaxRepetitionRate float64 `mapstructure:"max_repetition_rate"`

	Dashboard bool   `mapstructure:"dashboard"`
	Progress  bool   `mapstructure:"progress"`
	Color     string `mapstructure:"color"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Tracing TracingConfig `mapstructure:"tracing"`

	List       bool   `mapstructure:"-"`
	ConfigFile string `mapstructure:"-"`
}

// TracingConfig selects the OTLP exporter used for repetition spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

// Enabled reports whether an exporter endpoint is configured, either
// explicitly or through OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	return t.Endpoint != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// Defaults returns the configuration used when neither a file nor flags
// change anything.
func Defaults() Config {
	return Config{
		MinTime:     0.5,
		Repetitions: 1,
		Filter:      ".",
		Format:      FormatConsole,
		OutFormat:   FormatJSON,
		Color:       ColorAuto,
		LogLevel:    "warn",
		LogFormat:   "text",
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1,
		},
	}
}

// HasTimeUnit reports whether a process-wide display unit was requested.
func (c Config) HasTimeUnit() bool {
	return strings.TrimSpace(c.TimeUnit) != ""
}

// Unit parses TimeUnit. It is only meaningful when HasTimeUnit is true.
func (c Config) Unit() (bench.TimeUnit, error) {
	return bench.ParseTimeUnit(c.TimeUnit)
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string
	var warnings []string

	if c.MinTime < 0 {
		issues = append(issues, "min-time must be >= 0")
	}
	if c.MinWarmupTime < 0 {
		issues = append(issues, "min-warmup-time must be >= 0")
	}
	if c.Repetitions < 1 {
		issues = append(issues, "repetitions must be >= 1")
	}
	if c.MaxRepetitionRate < 0 {
		issues = append(issues, "max-repetition-rate must be >= 0")
	}
	if c.HasTimeUnit() {
		if _, err := c.Unit(); err != nil {
			issues = append(issues, fmt.Sprintf("time-unit: %v", err))
		}
	}
	if err := registry.ValidateFilter(c.Filter); err != nil {
		issues = append(issues, fmt.Sprintf("filter: %v", err))
	}

	switch c.Format {
	case FormatConsole, FormatJSON, FormatYAML, FormatCSV:
	default:
		issues = append(issues, fmt.Sprintf("format must be one of console, json, yaml, csv (got %q)", c.Format))
	}
	if c.Out != "" {
		switch c.OutFormat {
		case FormatConsole, FormatJSON, FormatYAML, FormatCSV, FormatHTML:
		default:
			issues = append(issues, fmt.Sprintf("out-format must be one of console, json, yaml, csv, html (got %q)", c.OutFormat))
		}
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		issues = append(issues, fmt.Sprintf("color must be auto, always or never (got %q)", c.Color))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		issues = append(issues, fmt.Sprintf("log-level: %v", err))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		issues = append(issues, fmt.Sprintf("log-format must be text or json (got %q)", c.LogFormat))
	}

	if c.Dashboard && c.Format != FormatConsole {
		issues = append(issues, "dashboard and non-console format are mutually exclusive")
	}
	if c.Dashboard && c.Progress {
		warnings = append(warnings, "WARNING: --progress is ignored while the dashboard is shown.")
	}
	if c.EnableRandomInterleaving && c.Repetitions == 1 {
		warnings = append(warnings, "WARNING: random interleaving has no effect with a single repetition.")
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch t.Protocol {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing.protocol must be grpc or http (got %q)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing.sample_rate must be within [0, 1] (got %v)", t.SampleRate))
	}
	return issues
}
