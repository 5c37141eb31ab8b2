package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/metrics"
)

// RunConfig holds run parameters for display.
type RunConfig struct {
	Benchmarks        int     // Number of selected instances
	Repetitions       int     // Process-wide repetitions
	MinTime           float64 // Seconds per repetition
	MinWarmupTime     float64 // Warmup seconds per repetition
	Interleaved       bool    // Random interleaving enabled
	Seed              uint64  // Interleaving seed
	MaxRepetitionRate float64 // Repetitions per second (0 = unlimited)
	Filter            string  // Instance filter
	ConfigFile        string  // Path to config file if used
}

const (
	historySize = 100
	maxBars     = 8
	maxListRows = 10
)

// Dashboard renders a live terminal UI for a benchmark run.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid          *ui.Grid
	rateSparkline *widgets.SparklineGroup
	progressGauge *widgets.Gauge
	timeChart     *widgets.BarChart
	benchmarkList *widgets.List
	skipList      *widgets.List
	summaryPara   *widgets.Paragraph
	latestPara    *widgets.Paragraph
	rateHistory   []float64
	startTime     time.Time
	runDuration   time.Duration
	runConfig     RunConfig
}

// New creates a new Dashboard.
func New(collector *metrics.Collector, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:    collector,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		rateHistory:  make([]float64, 0, historySize),
		startTime:    time.Now(),
		runConfig:    cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Repetitions/s"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.rateSparkline = widgets.NewSparklineGroup(sparkline)
	d.rateSparkline.Title = "Throughput"
	d.rateSparkline.BorderStyle.Fg = ui.ColorCyan

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Repetitions"
	d.progressGauge.Percent = 0
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.timeChart = widgets.NewBarChart()
	d.timeChart.Title = "Median time per iteration"
	d.timeChart.BarWidth = 9
	d.timeChart.BarColors = []ui.Color{ui.ColorGreen}
	d.timeChart.LabelStyles = []ui.Style{ui.NewStyle(ui.ColorWhite)}
	d.timeChart.NumStyles = []ui.Style{ui.NewStyle(ui.ColorBlack)}
	d.timeChart.NumFormatter = func(v float64) string { return formatNs(v) }
	d.timeChart.BorderStyle.Fg = ui.ColorCyan

	d.benchmarkList = widgets.NewList()
	d.benchmarkList.Title = "Repetition Spread"
	d.benchmarkList.Rows = []string{"Awaiting data"}
	d.benchmarkList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.benchmarkList.BorderStyle.Fg = ui.ColorCyan

	d.skipList = widgets.NewList()
	d.skipList.Title = "Skipped"
	d.skipList.Rows = []string{"No skips"}
	d.skipList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.skipList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.latestPara = widgets.NewParagraph()
	d.latestPara.Title = "Last Finished"
	d.latestPara.Text = "Waiting for data..."
	d.latestPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.16,
			ui.NewCol(0.5, d.progressGauge),
			ui.NewCol(0.5, d.rateSparkline),
		),
		ui.NewRow(0.28,
			ui.NewCol(0.6, d.timeChart),
			ui.NewCol(0.4, d.latestPara),
		),
		ui.NewRow(0.42,
			ui.NewCol(0.65, d.benchmarkList),
			ui.NewCol(0.35, d.skipList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and cleans up.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	d.runDuration = time.Since(d.startTime)
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// GetFinalStats returns the final statistics after the dashboard has stopped.
func (d *Dashboard) GetFinalStats() metrics.Stats {
	return d.collector.Stats(d.runDuration)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Stop() cancels the context once the runner has returned.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update(d.collector.Stats(time.Since(d.startTime)), d.collector.Latest())
			d.render()
		}
	}
}

// update refreshes all widget data from a stats snapshot.
func (d *Dashboard) update(stats metrics.Stats, latest []bench.Run) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rateHistory = append(d.rateHistory, stats.RepetitionsPerSec)
	if len(d.rateHistory) > historySize {
		d.rateHistory = d.rateHistory[1:]
	}
	d.rateSparkline.Sparklines[0].Data = d.rateHistory
	d.rateSparkline.Title = fmt.Sprintf("Throughput | %.1f repetitions/s", stats.RepetitionsPerSec)

	d.progressGauge.Percent = percent(stats.Progress())
	d.progressGauge.Label = fmt.Sprintf("%d/%d (%d%%)", stats.Repetitions, stats.PlannedRepetitions, d.progressGauge.Percent)

	d.summaryPara.Text = fmt.Sprintf(
		"%s\nElapsed: %s | Benchmarks: %d/%d | Skipped: %d | Errors: %d",
		d.formatRunParams(),
		stats.Duration.Round(time.Second),
		stats.Instances,
		stats.PlannedInstances,
		stats.Skipped,
		stats.Failed,
	)

	labels, values := chartData(stats.Benchmarks, maxBars)
	d.timeChart.Labels = labels
	d.timeChart.Data = values

	d.benchmarkList.Rows = formatBenchmarkRows(stats.Benchmarks, maxListRows)
	d.skipList.Rows = formatSkipRows(stats.SkipReasons, maxListRows)
	d.latestPara.Text = formatLatest(latest)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func percent(fraction float64) int {
	p := int(fraction * 100)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// chartData returns the median times of the most recent benchmarks. Bar
// labels keep only the argument suffix when the name is long.
func chartData(bs []metrics.BenchmarkStats, limit int) ([]string, []float64) {
	if len(bs) > limit {
		bs = bs[len(bs)-limit:]
	}
	labels := make([]string, 0, len(bs))
	values := make([]float64, 0, len(bs))
	for _, b := range bs {
		labels = append(labels, shortLabel(b.Name, 8))
		values = append(values, b.P50Ns)
	}
	return labels, values
}

func shortLabel(name string, width int) string {
	if len(name) <= width {
		return name
	}
	if i := strings.LastIndex(name, "/"); i >= 0 && len(name)-i-1 <= width && i < len(name)-1 {
		return name[i+1:]
	}
	return name[:width]
}

func formatBenchmarkRows(bs []metrics.BenchmarkStats, limit int) []string {
	if len(bs) == 0 {
		return []string{"[Awaiting data](fg:green)"}
	}
	if len(bs) > limit {
		bs = bs[len(bs)-limit:]
	}
	rows := make([]string, 0, len(bs))
	for _, b := range bs {
		rows = append(rows, fmt.Sprintf("[%s](fg:cyan) | reps %d | min %s | p50 %s | p99 %s | max %s",
			b.Name,
			b.Repetitions,
			formatNs(b.MinNs),
			formatNs(b.P50Ns),
			formatNs(b.P99Ns),
			formatNs(b.MaxNs),
		))
	}
	return rows
}

func formatSkipRows(buckets []metrics.SkipBucket, limit int) []string {
	if len(buckets) == 0 {
		return []string{"[No skips](fg:green)"}
	}
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}
	rows := make([]string, 0, len(buckets))
	for _, b := range buckets {
		color := "yellow"
		if b.Kind == "error" {
			color = "red"
		}
		rows = append(rows, fmt.Sprintf("[%s](fg:%s) %q x%d", strings.ToUpper(b.Kind), color, b.Message, b.Count))
	}
	return rows
}

func formatLatest(runs []bench.Run) string {
	if len(runs) == 0 {
		return "Waiting for data..."
	}
	lines := make([]string, 0, len(runs))
	for _, r := range runs {
		name := r.BenchmarkName()
		switch {
		case r.Skipped != bench.NotSkipped:
			lines = append(lines, fmt.Sprintf("[%s](fg:yellow) %s", name, r.Skipped))
		case r.ReportBigO:
			lines = append(lines, fmt.Sprintf("[%s](fg:cyan) %.2f %s", name, r.CPUAccumulatedTime, r.Complexity))
		case r.ReportRMS:
			lines = append(lines, fmt.Sprintf("[%s](fg:cyan) %.0f %%", name, r.CPUAccumulatedTime*100))
		case r.AggregateUnit == bench.UnitPercentage:
			lines = append(lines, fmt.Sprintf("[%s](fg:cyan) %.2f %%", name, r.RealAccumulatedTime*100))
		default:
			lines = append(lines, fmt.Sprintf("[%s](fg:cyan) %.3f %s (cpu %.3f %s) x%d",
				name, r.AdjustedRealTime(), r.TimeUnit, r.AdjustedCPUTime(), r.TimeUnit, r.Iterations))
		}
	}
	return strings.Join(lines, "\n")
}

// formatNs renders a nanosecond count in the largest unit that keeps it >= 1.
func formatNs(ns float64) string {
	switch {
	case ns >= 1e9:
		return fmt.Sprintf("%.2fs", ns/1e9)
	case ns >= 1e6:
		return fmt.Sprintf("%.2fms", ns/1e6)
	case ns >= 1e3:
		return fmt.Sprintf("%.2fus", ns/1e3)
	default:
		return fmt.Sprintf("%.0fns", ns)
	}
}

// formatRunParams formats the run configuration parameters for display.
func (d *Dashboard) formatRunParams() string {
	var parts []string
	cfg := d.runConfig

	if cfg.Benchmarks > 0 {
		parts = append(parts, fmt.Sprintf("Benchmarks: %d", cfg.Benchmarks))
	}
	if cfg.Repetitions > 1 {
		parts = append(parts, fmt.Sprintf("Repetitions: %d", cfg.Repetitions))
	}
	if cfg.MinTime > 0 {
		parts = append(parts, fmt.Sprintf("Min time: %gs", cfg.MinTime))
	}
	if cfg.MinWarmupTime > 0 {
		parts = append(parts, fmt.Sprintf("Warmup: %gs", cfg.MinWarmupTime))
	}
	if cfg.Interleaved {
		parts = append(parts, fmt.Sprintf("Interleaved (seed %d)", cfg.Seed))
	}
	if cfg.MaxRepetitionRate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %g/s", cfg.MaxRepetitionRate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}
	if cfg.Filter != "" && cfg.Filter != "." {
		parts = append(parts, fmt.Sprintf("Filter: %s", cfg.Filter))
	}
	if cfg.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", cfg.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
