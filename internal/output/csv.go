package output

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/runner"
)

var csvFixedColumns = []string{
	"name", "iterations", "real_time", "cpu_time", "time_unit",
	"bytes_per_second", "items_per_second", "label", "error_occurred", "error_message",
}

// CSVReporter streams one row per run. User counter columns are fixed by
// the first batch of runs; counters that appear later are not written.
type CSVReporter struct {
	w       *csv.Writer
	columns []string
	header  bool
}

func NewCSVReporter(w io.Writer) *CSVReporter {
	return &CSVReporter{w: csv.NewWriter(w)}
}

func (r *CSVReporter) ReportContext(runner.Context) bool { return true }

func (r *CSVReporter) ReportRunsConfig(float64, bool, int64) {}

func (r *CSVReporter) ReportRuns(runs []bench.Run) {
	recs := make([]Record, len(runs))
	for i, run := range runs {
		recs[i] = NewRecord(run)
	}
	if !r.header {
		r.header = true
		r.columns = counterColumns(recs)
		_ = r.w.Write(append(append([]string(nil), csvFixedColumns...), r.columns...))
	}
	for _, rec := range recs {
		_ = r.w.Write(csvRow(rec, r.columns))
	}
	r.w.Flush()
}

func (r *CSVReporter) Finalize() error {
	r.w.Flush()
	return r.w.Error()
}

// WriteCSV writes a finished document with one row per run.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	columns := counterColumns(doc.Benchmarks)
	if err := cw.Write(append(append([]string(nil), csvFixedColumns...), columns...)); err != nil {
		return err
	}
	for _, rec := range doc.Benchmarks {
		if err := cw.Write(csvRow(rec, columns)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func counterColumns(recs []Record) []string {
	seen := map[string]bool{"bytes_per_second": true, "items_per_second": true}
	var columns []string
	for _, rec := range recs {
		for name := range rec.Counters {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func csvRow(rec Record, columns []string) []string {
	row := make([]string, 0, len(csvFixedColumns)+len(columns))
	row = append(row, rec.Name)
	if rec.ErrorOccurred || rec.SkipMessage != "" {
		msg := rec.ErrorMessage
		if msg == "" {
			msg = rec.SkipMessage
		}
		row = append(row, "", "", "", "", "", "", "", strconv.FormatBool(rec.ErrorOccurred), msg)
		for range columns {
			row = append(row, "")
		}
		return row
	}

	switch {
	case rec.BigO != "":
		row = append(row, "", formatFloat(rec.RealCoefficient), formatFloat(rec.CPUCoefficient), rec.BigO)
	case rec.RMS != nil:
		row = append(row, "", formatFloat(rec.RMS), formatFloat(rec.RMS), "")
	default:
		row = append(row, strconv.FormatInt(rec.Iterations, 10), formatFloat(rec.RealTime), formatFloat(rec.CPUTime), rec.TimeUnit)
	}
	row = append(row, counterCell(rec, "bytes_per_second"), counterCell(rec, "items_per_second"), rec.Label, "", "")
	for _, name := range columns {
		row = append(row, counterCell(rec, name))
	}
	return row
}

func counterCell(rec Record, name string) string {
	v, ok := rec.Counters[name]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
