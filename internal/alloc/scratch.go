package alloc

import "fmt"

// MaxScopes bounds the nesting depth of a Scratch allocator, counting the
// implicit outermost scope.
const MaxScopes = 15

// Scratch is a bump allocator with nested scopes. PopScope rewinds the
// buffer to where the scope began; every allocation made inside the scope
// must be freed first.
type Scratch struct {
	region
	table handleTable

	depth int
	marks [MaxScopes]int
	live  [MaxScopes]int
}

// NewScratch returns a scratch allocator with capacity bytes.
func NewScratch(capacity int) *Scratch {
	return &Scratch{region: region{buf: make([]byte, capacity)}, table: newHandleTable()}
}

// PushScope opens a nested scope.
func (s *Scratch) PushScope() error {
	if s.checkedOut {
		return ErrCheckoutActive
	}
	if s.depth+1 >= MaxScopes {
		return fmt.Errorf("%w: max %d", ErrScopeDepth, MaxScopes)
	}
	s.depth++
	s.marks[s.depth] = s.off
	s.live[s.depth] = 0
	return nil
}

// PopScope closes the innermost scope and rewinds the buffer.
func (s *Scratch) PopScope() error {
	if s.depth == 0 {
		return ErrNoScope
	}
	if s.checkedOut {
		return ErrCheckoutActive
	}
	if n := s.live[s.depth]; n != 0 {
		return fmt.Errorf("%w: %d live", ErrScopeLeak, n)
	}
	s.off = s.marks[s.depth]
	s.depth--
	return nil
}

// Depth returns the number of open nested scopes.
func (s *Scratch) Depth() int { return s.depth }

func (s *Scratch) Checkout(max int) ([]byte, error) {
	return s.checkout(max)
}

func (s *Scratch) Commit(used int) (Block, error) {
	start, err := s.commit(used)
	if err != nil {
		return Block{}, err
	}
	h := s.table.add(entry{offset: start, size: used, scope: s.depth})
	s.live[s.depth]++
	return s.block(h, start, used), nil
}

func (s *Scratch) Alloc(size int) (Block, error) {
	if _, err := s.Checkout(size); err != nil {
		return Block{}, err
	}
	return s.Commit(size)
}

// Free releases a block.
func (s *Scratch) Free(h Handle) error {
	e, err := s.table.remove(h)
	if err != nil {
		return err
	}
	s.live[e.scope]--
	return nil
}

func (s *Scratch) Stats() Stats { return s.table.stats }

func (s *Scratch) Cap() int { return len(s.buf) }

// Reset closes every scope and drops all allocations.
func (s *Scratch) Reset() {
	s.table.clear()
	s.off = 0
	s.depth = 0
	s.live = [MaxScopes]int{}
	s.checkedOut = false
	s.checkoutMax = 0
}
