package output

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/torosent/crankbench/internal/bench"
)

const promNamespace = "crankbench"

// PrometheusRegistry builds a registry holding one gauge sample per
// reported, non-skipped run. Times are exported in seconds per iteration.
func PrometheusRegistry(runs []bench.Run) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	labels := []string{"benchmark", "run_type", "aggregate"}

	realTime := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "real_time_seconds",
		Help:      "Wall clock time per iteration.",
	}, labels)
	cpuTime := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "cpu_time_seconds",
		Help:      "CPU time per iteration.",
	}, labels)
	iterations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "iterations",
		Help:      "Iterations measured by the run.",
	}, labels)
	counter := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "counter",
		Help:      "Finished user counter values.",
	}, append(labels, "counter"))
	skipped := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "skipped",
		Help:      "1 when the run was skipped, labelled with the reason kind.",
	}, []string{"benchmark", "kind"})

	for _, c := range []prometheus.Collector{realTime, cpuTime, iterations, counter, skipped} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	for _, run := range runs {
		name := run.BenchmarkName()
		if run.Skipped != bench.NotSkipped {
			skipped.WithLabelValues(name, run.Skipped.String()).Set(1)
			continue
		}
		// BigO coefficients and RMS ratios are not per-iteration times.
		if run.ReportBigO || run.ReportRMS || run.AggregateUnit == bench.UnitPercentage {
			continue
		}
		lv := []string{name, run.Type.String(), run.AggregateName}
		perIter := func(seconds float64) float64 {
			if run.Iterations == 0 {
				return seconds
			}
			return seconds / float64(run.Iterations)
		}
		realTime.WithLabelValues(lv...).Set(perIter(run.RealAccumulatedTime))
		cpuTime.WithLabelValues(lv...).Set(perIter(run.CPUAccumulatedTime))
		iterations.WithLabelValues(lv...).Set(float64(run.Iterations))
		for _, cname := range run.Counters.Names() {
			counter.WithLabelValues(append(lv, cname)...).Set(run.Counters[cname].Value)
		}
	}
	return reg, nil
}

// WritePrometheus writes runs in the node_exporter textfile format.
func WritePrometheus(path string, runs []bench.Run) error {
	reg, err := PrometheusRegistry(runs)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write prometheus textfile %s: %w", path, err)
	}
	return nil
}
