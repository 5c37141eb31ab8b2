package alloc

import "fmt"

// region is a bump pointer over a fixed buffer with an explicit checkout
// state. At most one checkout may be outstanding; it must be committed
// before the next allocation.
type region struct {
	buf []byte
	off int

	checkedOut  bool
	checkoutAt  int
	checkoutMax int
}

func (r *region) checkout(max int) ([]byte, error) {
	if r.checkedOut {
		return nil, ErrCheckoutActive
	}
	if max < 0 {
		return nil, fmt.Errorf("alloc: negative checkout size %d", max)
	}
	start := alignUp(r.off)
	if start+max > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes, %d free", ErrOutOfMemory, max, len(r.buf)-start)
	}
	r.checkedOut = true
	r.checkoutAt = start
	r.checkoutMax = max
	return r.buf[start : start+max : start+max], nil
}

func (r *region) commit(used int) (int, error) {
	if !r.checkedOut {
		return 0, ErrNoCheckout
	}
	if used < 0 || used > r.checkoutMax {
		return 0, fmt.Errorf("%w: %d > %d", ErrCommitTooLarge, used, r.checkoutMax)
	}
	start := r.checkoutAt
	r.off = start + used
	r.checkedOut = false
	r.checkoutMax = 0
	return start, nil
}

func (r *region) block(h Handle, start, size int) Block {
	return Block{Handle: h, Bytes: r.buf[start : start+size : start+size]}
}

// Arena is a forward (bump) allocator over a fixed buffer. The offset
// rewinds to the start once every allocation has been freed.
type Arena struct {
	region
	table handleTable
}

// NewArena returns an arena with capacity bytes.
func NewArena(capacity int) *Arena {
	return &Arena{region: region{buf: make([]byte, capacity)}, table: newHandleTable()}
}

// Checkout reserves up to max bytes. The returned slice may be written
// before Commit decides how much of it to keep.
func (a *Arena) Checkout(max int) ([]byte, error) {
	return a.checkout(max)
}

// Commit keeps used bytes of the outstanding checkout as one allocation.
func (a *Arena) Commit(used int) (Block, error) {
	start, err := a.commit(used)
	if err != nil {
		return Block{}, err
	}
	h := a.table.add(entry{offset: start, size: used})
	return a.block(h, start, used), nil
}

func (a *Arena) Alloc(size int) (Block, error) {
	if _, err := a.Checkout(size); err != nil {
		return Block{}, err
	}
	return a.Commit(size)
}

func (a *Arena) Free(h Handle) error {
	if _, err := a.table.remove(h); err != nil {
		return err
	}
	if a.table.stats.Live == 0 && !a.checkedOut {
		a.off = 0
	}
	return nil
}

func (a *Arena) Stats() Stats { return a.table.stats }

// Used returns the bytes between the start of the buffer and the bump offset.
func (a *Arena) Used() int { return a.off }

func (a *Arena) Cap() int { return len(a.buf) }

// Reset drops every allocation and any outstanding checkout.
func (a *Arena) Reset() {
	a.table.clear()
	a.off = 0
	a.checkedOut = false
	a.checkoutMax = 0
}
