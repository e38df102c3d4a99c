package pipeline

import (
	"sync/atomic"

	"github.com/Aman-CERP/wikidex/internal/store"
)

// IDAllocator hands out strictly increasing document ids. It is safe for
// concurrent use; every call to Next returns a distinct id.
type IDAllocator struct {
	base store.DocumentID
	last atomic.Uint64
}

// NewIDAllocator returns an allocator whose first id is base.
func NewIDAllocator(base store.DocumentID) *IDAllocator {
	a := &IDAllocator{base: base}
	// Wraps to MaxUint64 for base 0, so the first Add still yields base.
	a.last.Store(uint64(base) - 1)
	return a
}

// Next returns the next id.
func (a *IDAllocator) Next() store.DocumentID {
	return store.DocumentID(a.last.Add(1))
}

// Base returns the first id this allocator hands out.
func (a *IDAllocator) Base() store.DocumentID {
	return a.base
}

// Last returns the most recent id handed out, or Base()-1 if none.
func (a *IDAllocator) Last() store.DocumentID {
	return store.DocumentID(a.last.Load())
}

// Issued returns how many ids have been handed out.
func (a *IDAllocator) Issued() uint64 {
	return uint64(a.Last()) - uint64(a.base) + 1
}
