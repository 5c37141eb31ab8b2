package workloads_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/registry"
	"github.com/torosent/crankbench/internal/runner"
	"github.com/torosent/crankbench/internal/workloads"
)

func TestRegister(t *testing.T) {
	reg := registry.New()
	if err := workloads.Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.Len() != len(workloads.All()) {
		t.Errorf("Len() = %d, want %d", reg.Len(), len(workloads.All()))
	}
	if err := workloads.Register(reg); !errors.Is(err, registry.ErrDuplicate) {
		t.Errorf("second Register() error = %v, want ErrDuplicate", err)
	}

	insts, err := reg.Instances(".")
	if err != nil {
		t.Fatalf("Instances() error = %v", err)
	}
	names := make(map[string]bool, len(insts))
	for _, inst := range insts {
		names[inst.String()] = true
	}
	for _, want := range []string{
		"BM_Sort/256",
		"BM_Sort/16384",
		"BM_MapInsert/4096/threads:2",
		"BM_ChannelRoundTrip/manual_time",
		"BM_ScratchScopes/8",
		"BM_GJSONGet",
		"BM_YAMLEncode/256",
		"BM_ULIDNew/threads:4",
		"BM_HistogramRecord/1024",
	} {
		if !names[want] {
			t.Errorf("instance %q not registered", want)
		}
	}
}

func TestFilterSelectsFamily(t *testing.T) {
	reg := registry.New()
	if err := workloads.Register(reg); err != nil {
		t.Fatal(err)
	}
	insts, err := reg.Instances("^BM_Sort/")
	if err != nil {
		t.Fatalf("Instances() error = %v", err)
	}
	if len(insts) != 4 {
		t.Errorf("got %d BM_Sort instances, want 4", len(insts))
	}
}

// TestSuiteRuns executes every workload for a handful of iterations on the
// real clock.
func TestSuiteRuns(t *testing.T) {
	reg := registry.New()
	for _, b := range workloads.All() {
		if err := reg.Register(b.Iterations(3)); err != nil {
			t.Fatal(err)
		}
	}
	insts, err := reg.Instances("")
	if err != nil {
		t.Fatal(err)
	}

	res, err := runner.New(runner.Options{}).Run(context.Background(), insts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	byName := make(map[string]bench.Run)
	for _, run := range res.Runs {
		if run.Skipped != bench.NotSkipped {
			t.Errorf("%s skipped: %s", run.BenchmarkName(), run.SkipMessage)
		}
		byName[run.BenchmarkName()] = run
	}

	sortRun, ok := byName["BM_Sort/1024/iterations:3"]
	if !ok {
		t.Fatalf("no BM_Sort/1024 run in %d runs", len(res.Runs))
	}
	if sortRun.Iterations != 3 || sortRun.ComplexityN != 1024 {
		t.Errorf("BM_Sort/1024 = iterations %d, N %d", sortRun.Iterations, sortRun.ComplexityN)
	}
	if _, ok := sortRun.Counters["items_per_second"]; !ok {
		t.Errorf("BM_Sort/1024 counters = %v", sortRun.Counters)
	}
	if _, ok := byName["BM_Sort/iterations:3_BigO"]; !ok {
		t.Error("no complexity fit for BM_Sort")
	}
	if _, ok := byName["BM_HistogramRecord/iterations:3_RMS"]; !ok {
		t.Error("no RMS for BM_HistogramRecord")
	}

	scopes := byName["BM_ScratchScopes/8/iterations:3"]
	if scopes.Memory == nil || scopes.Memory.Allocs != 24 || scopes.Memory.Live != 0 {
		t.Errorf("BM_ScratchScopes/8 memory = %+v, want 24 allocations all freed", scopes.Memory)
	}
	if c, ok := byName["BM_MapInsert/64/iterations:3/threads:2"].Counters["keys"]; !ok || c.Value != 64 {
		t.Errorf("BM_MapInsert keys counter = %+v", c)
	}
	for name := range byName {
		if strings.HasPrefix(name, "BM_ChannelRoundTrip") && byName[name].RealAccumulatedTime <= 0 {
			t.Errorf("%s recorded no manual time", name)
		}
	}
}
