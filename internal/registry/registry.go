// Package registry holds the benchmarks declared by a program. A Registry is
// built explicitly at start-up and handed to the runner.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/torosent/crankbench/internal/bench"
)

// ErrDuplicate is returned when a benchmark name is registered twice.
var ErrDuplicate = errors.New("registry: benchmark already registered")

// Registry is an ordered set of benchmark families.
type Registry struct {
	mu       sync.Mutex
	families []*bench.Benchmark
	names    map[string]struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register adds benchmarks in declaration order.
func (r *Registry) Register(bs ...*bench.Benchmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range bs {
		if b == nil {
			return errors.New("registry: nil benchmark")
		}
		if _, ok := r.names[b.Name()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, b.Name())
		}
		r.names[b.Name()] = struct{}{}
		r.families = append(r.families, b)
	}
	return nil
}

// MustRegister is Register for static suites; it panics on error.
func (r *Registry) MustRegister(bs ...*bench.Benchmark) {
	if err := r.Register(bs...); err != nil {
		panic(err)
	}
}

// Len returns the number of registered families.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.families)
}

// Instances expands every family and keeps the instances whose name matches
// filter. A leading '-' negates the pattern; an empty filter or "all"
// matches everything. Family and per-family indices are assigned over the
// selected instances only, so families without a match leave no gap.
func (r *Registry) Instances(filter string) ([]*bench.Instance, error) {
	match, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	families := append([]*bench.Benchmark(nil), r.families...)
	r.mu.Unlock()

	var out []*bench.Instance
	familyIndex := 0
	for _, b := range families {
		var selected []*bench.Instance
		for _, inst := range b.Instances(familyIndex) {
			if match(inst.String()) {
				inst.PerFamilyInstanceIndex = len(selected)
				selected = append(selected, inst)
			}
		}
		if len(selected) == 0 {
			continue
		}
		out = append(out, selected...)
		familyIndex++
	}
	return out, nil
}

func compileFilter(filter string) (func(string) bool, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == "all" {
		return func(string) bool { return true }, nil
	}
	negate := strings.HasPrefix(filter, "-")
	if negate {
		filter = filter[1:]
	}
	re, err := regexp.Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
	}
	return func(name string) bool { return re.MatchString(name) != negate }, nil
}

// ValidateFilter reports whether filter would be accepted by Instances.
func ValidateFilter(filter string) error {
	_, err := compileFilter(filter)
	return err
}
