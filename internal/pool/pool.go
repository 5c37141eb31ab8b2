// Package pool keeps reusable per-thread resources, such as scratch arenas,
// between benchmark probes.
package pool

import (
	"strconv"
	"sync"
)

// Poolable is a resource that can be returned to a clean state.
type Poolable interface {
	Reset()
}

// Pool holds idle resources keyed by their shape.
type Pool struct {
	pools sync.Map // map[string]chan Poolable
	size  int      // max idle items per key
}

// New creates a pool keeping at most size idle items per key.
func New(size int) *Pool {
	if size <= 0 {
		size = 8
	}
	return &Pool{size: size}
}

// Get retrieves an idle item for key or builds one with factory.
// reused reports whether the item came from the pool.
func (p *Pool) Get(key string, factory func() Poolable) (item Poolable, reused bool) {
	ch := p.channel(key)
	select {
	case item = <-ch:
		return item, true
	default:
		return factory(), false
	}
}

// Put resets item and keeps it for reuse. It reports false when the pool
// for key is full and the item was dropped.
func (p *Pool) Put(key string, item Poolable) bool {
	if item == nil {
		return false
	}
	item.Reset()
	select {
	case p.channel(key) <- item:
		return true
	default:
		return false
	}
}

// Idle returns the number of idle items held for key.
func (p *Pool) Idle(key string) int {
	v, ok := p.pools.Load(key)
	if !ok {
		return 0
	}
	return len(v.(chan Poolable))
}

// Drain drops every idle item.
func (p *Pool) Drain() {
	p.pools.Range(func(key, value interface{}) bool {
		ch := value.(chan Poolable)
		for {
			select {
			case <-ch:
			default:
				return true
			}
		}
	})
}

func (p *Pool) channel(key string) chan Poolable {
	v, _ := p.pools.LoadOrStore(key, make(chan Poolable, p.size))
	return v.(chan Poolable)
}

// ScratchKey builds the key for scratch arenas of the given capacity.
func ScratchKey(capacity int) string {
	return "scratch|" + strconv.Itoa(capacity)
}
