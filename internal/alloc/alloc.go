// Package alloc provides the memory allocators handed to benchmark threads.
//
// Three implementations share the Allocator interface:
//   - Heap: general purpose, backed by the Go heap.
//   - Arena: a fixed bump region with a checkout then commit protocol.
//   - Scratch: an Arena with nested scopes that rewind on pop.
//
// Every allocation is identified by a Handle. Freeing a handle twice is
// reported as ErrDoubleFree instead of corrupting allocator state.
package alloc

import "errors"

var (
	ErrOutOfMemory    = errors.New("alloc: out of memory")
	ErrDoubleFree     = errors.New("alloc: handle already freed")
	ErrUnknownHandle  = errors.New("alloc: unknown handle")
	ErrCheckoutActive = errors.New("alloc: checkout already active")
	ErrNoCheckout     = errors.New("alloc: commit without checkout")
	ErrCommitTooLarge = errors.New("alloc: commit exceeds checked out size")
	ErrScopeLeak      = errors.New("alloc: scope popped with live allocations")
	ErrScopeDepth     = errors.New("alloc: scope depth exceeded")
	ErrNoScope        = errors.New("alloc: no scope to pop")
)

// Handle identifies one allocation. The zero Handle is never issued.
type Handle uint64

// Block is a live allocation.
type Block struct {
	Handle Handle
	Bytes  []byte
}

// Stats summarises allocator activity.
type Stats struct {
	Allocs         int64 `json:"allocs" yaml:"allocs"`
	Frees          int64 `json:"frees" yaml:"frees"`
	Live           int64 `json:"live" yaml:"live"`
	BytesAllocated int64 `json:"bytes_allocated" yaml:"bytes_allocated"`
	InUseBytes     int64 `json:"in_use_bytes" yaml:"in_use_bytes"`
	PeakBytes      int64 `json:"peak_bytes" yaml:"peak_bytes"`
}

// Add accumulates other into s. Peak values add because each allocator
// served a separate thread.
func (s *Stats) Add(other Stats) {
	s.Allocs += other.Allocs
	s.Frees += other.Frees
	s.Live += other.Live
	s.BytesAllocated += other.BytesAllocated
	s.InUseBytes += other.InUseBytes
	s.PeakBytes += other.PeakBytes
}

// Allocator hands out byte blocks and takes them back by handle.
type Allocator interface {
	Alloc(size int) (Block, error)
	Free(h Handle) error
	Stats() Stats
}

// Resetter is implemented by allocators that can drop every allocation at
// once so they can be reused.
type Resetter interface {
	Reset()
}

const alignment = 8

func alignUp(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}
