package output

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/counters"
	"github.com/torosent/crankbench/internal/runner"
)

var (
	nameColor       = color.New(color.FgGreen)
	complexityColor = color.New(color.FgHiBlue)
	timeColor       = color.New(color.FgYellow)
	iterationsColor = color.New(color.FgCyan)
	errorColor      = color.New(color.FgRed)
	skipColor       = color.New(color.FgWhite)
)

// SetColor applies a color mode of auto, always or never. Auto leaves the
// terminal detection of fatih/color in place.
func SetColor(mode string) error {
	switch strings.ToLower(mode) {
	case "", "auto":
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("unknown color mode %q (use auto, always or never)", mode)
	}
	return nil
}

// ConsoleReporter prints one aligned line per run.
type ConsoleReporter struct {
	w       io.Writer
	tabular bool

	width         int
	printedHeader bool
	prevCounters  []string
}

// NewConsoleReporter writes to w. With tabular set, every counter gets its
// own column and the header is repeated when the counter set changes.
func NewConsoleReporter(w io.Writer, tabular bool) *ConsoleReporter {
	if w == nil {
		w = io.Discard
	}
	return &ConsoleReporter{w: w, tabular: tabular, width: 10}
}

func (c *ConsoleReporter) ReportContext(ctx runner.Context) bool {
	if ctx.NameFieldWidth > 0 {
		c.width = ctx.NameFieldWidth
	}
	c.printedHeader = false
	c.prevCounters = nil

	fmt.Fprintln(c.w, ctx.Date.Format(time.RFC3339))
	if ctx.Executable != "" {
		fmt.Fprintf(c.w, "Running %s\n", ctx.Executable)
	}
	fmt.Fprintf(c.w, "Run on (%d X CPU s) %s/%s %s\n", ctx.NumCPUs, ctx.GOOS, ctx.GOARCH, ctx.GoVersion)
	if ctx.Interleaved {
		fmt.Fprintf(c.w, "Random interleaving seed: %d\n", ctx.Seed)
	}
	return true
}

func (c *ConsoleReporter) ReportRunsConfig(float64, bool, int64) {}

func (c *ConsoleReporter) ReportRuns(runs []bench.Run) {
	for _, run := range runs {
		names := run.Counters.Names()
		if !c.printedHeader || (c.tabular && !slices.Equal(names, c.prevCounters)) {
			c.printedHeader = true
			c.prevCounters = names
			c.printHeader(names)
		}
		c.printRun(run)
	}
}

func (c *ConsoleReporter) Finalize() error { return nil }

func (c *ConsoleReporter) printHeader(counterNames []string) {
	header := fmt.Sprintf("%-*s %13s %15s %12s", c.width, "Benchmark", "Time", "CPU", "Iterations")
	if len(counterNames) > 0 {
		if c.tabular {
			for _, name := range counterNames {
				header += fmt.Sprintf(" %10s", name)
			}
		} else {
			header += " UserCounters..."
		}
	}
	rule := strings.Repeat("-", len(header))
	fmt.Fprintf(c.w, "%s\n%s\n%s\n", rule, header, rule)
}

func (c *ConsoleReporter) printRun(run bench.Run) {
	nc := nameColor
	if run.ReportBigO || run.ReportRMS {
		nc = complexityColor
	}
	nc.Fprintf(c.w, "%-*s ", c.width, run.BenchmarkName())

	switch run.Skipped {
	case bench.SkippedWithError:
		errorColor.Fprintf(c.w, "ERROR OCCURRED: '%s'", run.SkipMessage)
		fmt.Fprintln(c.w)
		return
	case bench.SkippedWithMessage:
		skipColor.Fprintf(c.w, "SKIPPED: '%s'", run.SkipMessage)
		fmt.Fprintln(c.w)
		return
	}

	realTime := run.AdjustedRealTime()
	cpuTime := run.AdjustedCPUTime()
	percentage := run.Type == bench.RunAggregate && run.AggregateUnit == bench.UnitPercentage
	switch {
	case run.ReportBigO:
		curve := run.Complexity.String()
		timeColor.Fprintf(c.w, "%10.2f %-4s %10.2f %-4s ", realTime, curve, cpuTime, curve)
	case run.ReportRMS:
		timeColor.Fprintf(c.w, "%10.0f %-4s %10.0f %-4s ", realTime*100, "%", cpuTime*100, "%")
	case percentage:
		timeColor.Fprintf(c.w, "%10.2f %-4s %10.2f %-4s ", 100*run.RealAccumulatedTime, "%", 100*run.CPUAccumulatedTime, "%")
	default:
		unit := run.TimeUnit.String()
		timeColor.Fprintf(c.w, "%s %-4s %s %-4s ", formatTime(realTime), unit, formatTime(cpuTime), unit)
	}

	if !run.ReportBigO && !run.ReportRMS {
		iterationsColor.Fprintf(c.w, "%10d", run.Iterations)
	}

	for _, name := range run.Counters.Names() {
		value, unit := counterString(run.Counters[name], percentage)
		if c.tabular {
			fmt.Fprintf(c.w, " %*s%s", len(name)-len(unit), value, unit)
		} else {
			fmt.Fprintf(c.w, " %s=%s%s", name, value, unit)
		}
	}

	if label := run.Label(); label != "" {
		fmt.Fprintf(c.w, " %s", label)
	}
	fmt.Fprintln(c.w)
}

func counterString(ct counters.Counter, percentage bool) (string, string) {
	if percentage {
		return fmt.Sprintf("%.2f", 100*ct.Value), "%"
	}
	unit := ""
	if ct.Flags&counters.IsRate != 0 {
		unit = "/s"
		if ct.Flags&counters.Invert != 0 {
			unit = "s"
		}
	}
	return humanReadable(ct.Value, ct.OneK), unit
}
