package alloc

import (
	"fmt"
	"sync"
)

// Heap is the general purpose allocator. It is safe for concurrent use.
type Heap struct {
	mu    sync.Mutex
	table handleTable
	bufs  map[Handle][]byte
}

func NewHeap() *Heap {
	return &Heap{table: newHandleTable(), bufs: make(map[Handle][]byte)}
}

func (a *Heap) Alloc(size int) (Block, error) {
	if size < 0 {
		return Block{}, fmt.Errorf("alloc: negative size %d", size)
	}
	buf := make([]byte, size)

	a.mu.Lock()
	defer a.mu.Unlock()
	h := a.table.add(entry{size: size})
	a.bufs[h] = buf
	return Block{Handle: h, Bytes: buf}, nil
}

func (a *Heap) Free(h Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.table.remove(h); err != nil {
		return err
	}
	delete(a.bufs, h)
	return nil
}

func (a *Heap) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table.stats
}
