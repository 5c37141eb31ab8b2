package workloads

import (
	"bytes"

	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/torosent/crankbench/internal/alloc"
	"github.com/torosent/crankbench/internal/bench"
)

// reportDoc is shaped like a JSON report written by --out.
var reportDoc = []byte(`{
  "context": {"run_id": "01HZX3M6Q2S1V9Y4T8B7K5C0RD", "num_cpus": 8, "goos": "linux"},
  "benchmarks": [
    {"name": "BM_Sort/256", "iterations": 120000, "real_time": 5.1, "cpu_time": 5.0, "time_unit": "us"},
    {"name": "BM_Sort/1024", "iterations": 24000, "real_time": 26.4, "cpu_time": 26.2, "time_unit": "us"},
    {"name": "BM_Sort/4096", "iterations": 5100, "real_time": 121.0, "cpu_time": 120.3, "time_unit": "us"},
    {"name": "BM_Sort_BigO", "run_type": "aggregate", "cpu_coefficient": 2.47, "big_o": "NlgN", "time_unit": "us"}
  ]
}`)

// GJSONGet looks up one benchmark of a report by name, the query the
// baseline comparison issues for every run.
func GJSONGet() *bench.Benchmark {
	return bench.New("BM_GJSONGet", func(st *bench.State, _ alloc.Allocator) {
		var cpu float64
		for st.KeepRunning() {
			cpu = gjson.GetBytes(reportDoc, `benchmarks.#(name=="BM_Sort/4096").cpu_time`).Float()
		}
		if cpu == 0 {
			st.SkipWithError("query matched nothing")
			return
		}
		st.SetBytesProcessed(st.Iterations() * int64(len(reportDoc)))
	}).Unit(bench.Nanosecond)
}

func sampleFields() map[string]interface{} {
	return map[string]interface{}{
		"name":       "BM_Sort/1024",
		"iterations": 24000,
		"real_time":  26.4,
		"cpu_time":   26.2,
		"time_unit":  "us",
		"counters":   map[string]interface{}{"items_per_second": 3.9e7},
		"skipped":    false,
	}
}

// StructpbMarshal builds a structpb.Struct from a run record and encodes it.
func StructpbMarshal() *bench.Benchmark {
	return bench.New("BM_StructpbMarshal", func(st *bench.State, _ alloc.Allocator) {
		fields := sampleFields()
		var size int
		for st.KeepRunning() {
			s, err := structpb.NewStruct(fields)
			if err != nil {
				st.SkipWithError(err.Error())
				break
			}
			out, err := proto.Marshal(s)
			if err != nil {
				st.SkipWithError(err.Error())
				break
			}
			size = len(out)
		}
		st.SetBytesProcessed(st.Iterations() * int64(size))
	}).Unit(bench.Nanosecond)
}

type yamlRecord struct {
	Name       string  `yaml:"name"`
	Iterations int64   `yaml:"iterations"`
	RealTime   float64 `yaml:"real_time"`
	CPUTime    float64 `yaml:"cpu_time"`
	TimeUnit   string  `yaml:"time_unit"`
}

// YAMLEncode encodes Range(0) run records as a YAML document.
func YAMLEncode() *bench.Benchmark {
	return bench.New("BM_YAMLEncode", func(st *bench.State, _ alloc.Allocator) {
		records := make([]yamlRecord, st.Range(0))
		for i := range records {
			records[i] = yamlRecord{Name: "BM_Sort/1024", Iterations: int64(1000 + i), RealTime: 26.4, CPUTime: 26.2, TimeUnit: "us"}
		}
		var buf bytes.Buffer
		for st.KeepRunning() {
			buf.Reset()
			enc := yaml.NewEncoder(&buf)
			if err := enc.Encode(records); err != nil {
				st.SkipWithError(err.Error())
				break
			}
			if err := enc.Close(); err != nil {
				st.SkipWithError(err.Error())
				break
			}
		}
		st.SetItemsProcessed(st.Iterations() * st.Range(0))
		st.SetComplexityN(st.Range(0))
	}).Arg(1).Arg(16).Arg(256).Complexity(bench.OAuto)
}
