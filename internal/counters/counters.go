// Package counters holds the user-defined counters a benchmark reports next
// to its timings.
package counters

import (
	"fmt"
	"sort"
)

// Flags control how a counter value is finished before reporting.
type Flags uint32

const (
	// IsRate divides the value by the measured seconds.
	IsRate Flags = 1 << 16
	// AvgThreads divides the value by the thread count.
	AvgThreads Flags = 1 << 17
	// IsIterationInvariant multiplies the value by the iteration count.
	IsIterationInvariant Flags = 1 << 18
	// AvgIterations divides the value by the iteration count.
	AvgIterations Flags = 1 << 19
	// Invert reports 1/value. Applied last.
	Invert Flags = 1 << 31

	AvgThreadsRate           = IsRate | AvgThreads
	IsIterationInvariantRate = IsRate | IsIterationInvariant
	AvgIterationsRate        = IsRate | AvgIterations

	Defaults Flags = 0
)

// OneK is the base used when a counter is printed with a k/M/G suffix.
type OneK int

const (
	OneK1000 OneK = 1000
	OneK1024 OneK = 1024
)

// Counter is one named measurement.
type Counter struct {
	Value float64 `json:"value" yaml:"value"`
	Flags Flags   `json:"flags" yaml:"flags"`
	OneK  OneK    `json:"one_k" yaml:"one_k"`
}

// New returns a counter with the default 1000 base.
func New(value float64, flags Flags) Counter {
	return Counter{Value: value, Flags: flags, OneK: OneK1000}
}

// Set maps counter names to counters. Identity is the name.
type Set map[string]Counter

// Names returns the counter names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Increment adds src into dst by name. Counters missing from dst are
// copied in. A name present in both with different flags is a programming
// error and panics.
func Increment(dst *Set, src Set) {
	if len(src) == 0 {
		return
	}
	if *dst == nil {
		*dst = make(Set, len(src))
	}
	for name, c := range src {
		cur, ok := (*dst)[name]
		if !ok {
			(*dst)[name] = c
			continue
		}
		if cur.Flags != c.Flags {
			panic(fmt.Sprintf("counters: flag mismatch for %q: %#x vs %#x", name, uint32(cur.Flags), uint32(c.Flags)))
		}
		cur.Value += c.Value
		(*dst)[name] = cur
	}
}

// FinishValue applies the counter's flags to its raw value.
func FinishValue(c Counter, iterations int64, seconds, threads float64) float64 {
	v := c.Value
	if c.Flags&IsRate != 0 {
		v /= seconds
	}
	if c.Flags&AvgThreads != 0 {
		v /= threads
	}
	if c.Flags&IsIterationInvariant != 0 {
		v *= float64(iterations)
	}
	if c.Flags&AvgIterations != 0 {
		v /= float64(iterations)
	}
	if c.Flags&Invert != 0 {
		v = 1.0 / v
	}
	return v
}

// Finish rewrites every counter in s with its finished value.
func Finish(s Set, iterations int64, seconds, threads float64) {
	for name, c := range s {
		c.Value = FinishValue(c, iterations, seconds, threads)
		s[name] = c
	}
}
