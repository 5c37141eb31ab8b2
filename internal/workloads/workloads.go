// Package workloads is the built-in benchmark suite run by the crankbench
// command. Each workload exercises a library the tool itself depends on, so
// the suite doubles as a regression check for those hot paths.
package workloads

import (
	"github.com/torosent/crankbench/internal/bench"
	"github.com/torosent/crankbench/internal/registry"
)

// All returns the suite in declaration order. Every call builds fresh
// benchmark values.
func All() []*bench.Benchmark {
	return []*bench.Benchmark{
		Sort(),
		MapInsert(),
		ChannelRoundTrip(),
		HeapAlloc(),
		ArenaCheckout(),
		ScratchScopes(),
		GJSONGet(),
		StructpbMarshal(),
		YAMLEncode(),
		ULIDNew(),
		HistogramRecord(),
	}
}

// Register adds the suite to r.
func Register(r *registry.Registry) error {
	return r.Register(All()...)
}
