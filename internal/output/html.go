package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/torosent/crankbench/internal/metrics"
	"github.com/torosent/crankbench/internal/threshold"
)

// HTMLExtras carries what the HTML report shows beyond the runs.
type HTMLExtras struct {
	Stats      *metrics.Stats
	Thresholds []threshold.Result
}

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Doc              Document
	Stats            *metrics.Stats
	ThresholdSummary *ThresholdSummary
	ScalingJSON      string
	HasScaling       bool
}

// ThresholdSummary counts the threshold outcomes shown in the report.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []threshold.Result
}

// scalingSeries is the per-family time-versus-N curve drawn in the report.
type scalingSeries struct {
	Family string    `json:"family"`
	Unit   string    `json:"unit"`
	N      []float64 `json:"n"`
	Real   []float64 `json:"real"`
	CPU    []float64 `json:"cpu"`
}

// GenerateHTMLReport generates a standalone HTML report with embedded charts.
func GenerateHTMLReport(w io.Writer, doc Document, extra HTMLExtras) error {
	var thresholdSummary *ThresholdSummary
	if len(extra.Thresholds) > 0 {
		thresholdSummary = &ThresholdSummary{
			Total:   len(extra.Thresholds),
			Results: extra.Thresholds,
		}
		for _, tr := range extra.Thresholds {
			if tr.Pass {
				thresholdSummary.Passed++
			} else {
				thresholdSummary.Failed++
			}
		}
	}

	series := scalingFromDocument(doc)
	scalingJSON, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to marshal scaling series: %w", err)
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Doc:              doc,
		Stats:            extra.Stats,
		ThresholdSummary: thresholdSummary,
		ScalingJSON:      string(scalingJSON),
		HasScaling:       len(series) > 0,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPtr": func(f *float64) string {
			if f == nil {
				return "-"
			}
			return fmt.Sprintf("%.3f", *f)
		},
		"formatCounters": func(c map[string]float64) string {
			if len(c) == 0 {
				return ""
			}
			names := make([]string, 0, len(c))
			for name := range c {
				names = append(names, name)
			}
			sort.Strings(names)
			parts := make([]string, len(names))
			for i, name := range names {
				parts[i] = name + "=" + humanReadable(c[name], 1000)
			}
			return strings.Join(parts, " ")
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

// scalingFromDocument collects the first repetition of every instance that
// set a complexity N, grouped by family and ordered by N.
func scalingFromDocument(doc Document) []scalingSeries {
	byFamily := map[int]*scalingSeries{}
	var order []int
	for _, rec := range doc.Benchmarks {
		if rec.RepetitionIndex == nil || *rec.RepetitionIndex > 0 || rec.ComplexityN <= 0 || rec.RealTime == nil {
			continue
		}
		s, ok := byFamily[rec.FamilyIndex]
		if !ok {
			family, _, _ := strings.Cut(rec.RunName, "/")
			s = &scalingSeries{Family: family, Unit: rec.TimeUnit}
			byFamily[rec.FamilyIndex] = s
			order = append(order, rec.FamilyIndex)
		}
		s.N = append(s.N, float64(rec.ComplexityN))
		s.Real = append(s.Real, *rec.RealTime)
		s.CPU = append(s.CPU, *rec.CPUTime)
	}

	out := make([]scalingSeries, 0, len(order))
	for _, idx := range order {
		s := byFamily[idx]
		if len(s.N) < 2 {
			continue
		}
		sort.Sort(byN{s})
		out = append(out, *s)
	}
	return out
}

type byN struct{ s *scalingSeries }

func (b byN) Len() int           { return len(b.s.N) }
func (b byN) Less(i, j int) bool { return b.s.N[i] < b.s.N[j] }
func (b byN) Swap(i, j int) {
	b.s.N[i], b.s.N[j] = b.s.N[j], b.s.N[i]
	b.s.Real[i], b.s.Real[j] = b.s.Real[j], b.s.Real[i]
	b.s.CPU[i], b.s.CPU[j] = b.s.CPU[j], b.s.CPU[i]
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Crankbench Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #0f766e 0%, #1e3a8a 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 { font-size: 2rem; margin-bottom: 10px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card { background: #f8f9fa; border-radius: 8px; padding: 20px; border-left: 4px solid #0f766e; }
        .card h3 { font-size: 0.9rem; color: #6c757d; text-transform: uppercase; letter-spacing: 0.5px; margin-bottom: 10px; }
        .card .value { font-size: 2rem; font-weight: bold; }
        .card.error { border-left-color: #ef4444; }
        .card.warning { border-left-color: #f59e0b; }
        .section { margin-bottom: 40px; }
        .section h2 { font-size: 1.4rem; margin-bottom: 20px; padding-bottom: 10px; border-bottom: 2px solid #e9ecef; }
        .chart { width: 100%; margin-bottom: 30px; }
        table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
        th, td { padding: 8px 12px; text-align: left; border-bottom: 1px solid #e9ecef; }
        th { background: #f8f9fa; font-weight: 600; }
        td.num { text-align: right; font-family: monospace; }
        tr.aggregate td { background: #f0fdfa; }
        tr.complexity td { background: #eff6ff; }
        .badge { display: inline-block; padding: 2px 8px; border-radius: 4px; font-size: 0.8rem; font-weight: 600; }
        .badge-success { background: #d1fae5; color: #065f46; }
        .badge-error { background: #fee2e2; color: #991b1b; }
    </style>
    {{if .HasScaling}}
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
    {{end}}
</head>
<body>
    <div class="container">
        <header>
            <h1>Crankbench Report</h1>
            <div class="meta">Run {{.Doc.Context.RunID}} on {{.Doc.Context.Host}} ({{.Doc.Context.NumCPUs}} CPUs, {{.Doc.Context.GOOS}}/{{.Doc.Context.GOARCH}}, {{.Doc.Context.GoVersion}})</div>
            <div class="meta">Generated: {{.GeneratedAt}}{{if .Stats}} | Duration: {{formatDuration .Stats.Duration}}{{end}}{{if .Doc.Context.Interleaved}} | Interleaving seed: {{.Doc.Context.Seed}}{{end}}</div>
        </header>

        <div class="content">
            {{if .Stats}}
            <div class="grid">
                <div class="card">
                    <h3>Benchmarks</h3>
                    <div class="value">{{.Stats.Instances}}</div>
                </div>
                <div class="card">
                    <h3>Repetitions</h3>
                    <div class="value">{{.Stats.Repetitions}}</div>
                </div>
                <div class="card warning">
                    <h3>Skipped</h3>
                    <div class="value">{{.Stats.Skipped}}</div>
                </div>
                <div class="card error">
                    <h3>Errors</h3>
                    <div class="value">{{.Stats.Failed}}</div>
                </div>
            </div>
            {{end}}

            <div class="section">
                <h2>Results</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Benchmark</th>
                            <th>Time</th>
                            <th>CPU</th>
                            <th>Unit</th>
                            <th>Iterations</th>
                            <th>Counters</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Doc.Benchmarks}}
                        <tr class="{{if .BigO}}complexity{{else if .RMS}}complexity{{else if .AggregateName}}aggregate{{end}}">
                            <td><strong>{{.Name}}</strong>{{if .Label}} <em>{{.Label}}</em>{{end}}</td>
                            {{if .ErrorOccurred}}
                            <td colspan="5"><span class="badge badge-error">ERROR</span> {{.ErrorMessage}}</td>
                            {{else if .SkipMessage}}
                            <td colspan="5"><span class="badge">SKIPPED</span> {{.SkipMessage}}</td>
                            {{else if .BigO}}
                            <td class="num">{{formatPtr .RealCoefficient}}</td>
                            <td class="num">{{formatPtr .CPUCoefficient}}</td>
                            <td>{{.BigO}}</td>
                            <td></td>
                            <td></td>
                            {{else if .RMS}}
                            <td class="num">{{formatPtr .RMS}}</td>
                            <td class="num">{{formatPtr .RMS}}</td>
                            <td>rms</td>
                            <td></td>
                            <td></td>
                            {{else}}
                            <td class="num">{{formatPtr .RealTime}}</td>
                            <td class="num">{{formatPtr .CPUTime}}</td>
                            <td>{{if eq .AggregateUnit "percentage"}}ratio{{else}}{{.TimeUnit}}{{end}}</td>
                            <td class="num">{{.Iterations}}</td>
                            <td>{{formatCounters .Counters}}</td>
                            {{end}}
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>

            {{if .HasScaling}}
            <div class="section">
                <h2>Scaling</h2>
                <div id="scaling"></div>
            </div>
            {{end}}

            {{if .Stats}}{{if .Stats.Benchmarks}}
            <div class="section">
                <h2>Repetition Spread (ns/iter)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Benchmark</th>
                            <th>Repetitions</th>
                            <th>Min</th>
                            <th>P50</th>
                            <th>P90</th>
                            <th>P99</th>
                            <th>Max</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Stats.Benchmarks}}
                        <tr>
                            <td>{{.Name}}</td>
                            <td class="num">{{.Repetitions}}</td>
                            <td class="num">{{formatFloat .MinNs}}</td>
                            <td class="num">{{formatFloat .P50Ns}}</td>
                            <td class="num">{{formatFloat .P90Ns}}</td>
                            <td class="num">{{formatFloat .P99Ns}}</td>
                            <td class="num">{{formatFloat .MaxNs}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}{{end}}

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold.Raw}}</td>
                            <td>{{.Threshold.Operator}} {{formatFloat .Threshold.Value}}{{.Threshold.Unit}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    {{if .HasScaling}}
    <script>
        const scalingJSON = {{.ScalingJSON}};
        const families = JSON.parse(scalingJSON);
        const root = document.getElementById('scaling');
        families.forEach(f => {
            const el = document.createElement('div');
            el.className = 'chart';
            root.appendChild(el);
            new uPlot({
                title: f.family,
                width: root.offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "N" },
                    { label: "Time", stroke: "#0f766e", width: 2 },
                    { label: "CPU", stroke: "#1e3a8a", width: 2 }
                ],
                axes: [
                    { label: "N" },
                    { label: f.unit + "/iter" }
                ]
            }, [f.n, f.real, f.cpu], el);
        });
    </script>
    {{end}}
</body>
</html>
`
