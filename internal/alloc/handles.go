package alloc

// entry records where a live allocation sits.
type entry struct {
	offset int
	size   int
	scope  int
}

// handleTable issues handles and detects double frees. Handles are issued
// in increasing order so any handle below next that is no longer live has
// already been freed.
type handleTable struct {
	next  Handle
	live  map[Handle]entry
	stats Stats
}

func newHandleTable() handleTable {
	return handleTable{next: 1, live: make(map[Handle]entry)}
}

func (t *handleTable) add(e entry) Handle {
	h := t.next
	t.next++
	t.live[h] = e
	t.stats.Allocs++
	t.stats.Live++
	t.stats.BytesAllocated += int64(e.size)
	t.stats.InUseBytes += int64(e.size)
	if t.stats.InUseBytes > t.stats.PeakBytes {
		t.stats.PeakBytes = t.stats.InUseBytes
	}
	return h
}

func (t *handleTable) remove(h Handle) (entry, error) {
	e, ok := t.live[h]
	if !ok {
		if h != 0 && h < t.next {
			return entry{}, ErrDoubleFree
		}
		return entry{}, ErrUnknownHandle
	}
	delete(t.live, h)
	t.stats.Frees++
	t.stats.Live--
	t.stats.InUseBytes -= int64(e.size)
	return e, nil
}

// clear forgets every live handle and zeroes the stats. Handles issued
// earlier stay invalid.
func (t *handleTable) clear() {
	t.live = make(map[Handle]entry)
	t.stats = Stats{}
}
