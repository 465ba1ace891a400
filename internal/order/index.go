package order

import (
	"errors"
	"sync"
)

var ErrFinishedOrder = errors.New("order already finished")

// Capacity hints for the two index tiers. The global index sees every
// order; a dimension index only sees its own slice of the volume.
const (
	GlobalIndexCapacity    = 512
	DimensionIndexCapacity = 64
)

// Index is a two-bin keyed store of orders: active and finished, both
// keyed by unique id. A unique id lives in at most one bin, and once
// finished it never returns to active.
type Index struct {
	mu       sync.RWMutex
	active   map[uint64]Order
	finished map[uint64]Order
}

// NewIndex creates an empty index sized by the capacity hint.
func NewIndex(capacity int) *Index {
	if capacity <= 0 {
		capacity = DimensionIndexCapacity
	}
	return &Index{
		active:   make(map[uint64]Order, capacity),
		finished: make(map[uint64]Order, capacity),
	}
}

// PutOrder inserts the order into the active bin. Re-registration of an
// active id is an upsert; a finished id is never resurrected and the call
// fails loudly instead.
func (x *Index) PutOrder(o Order) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.finished[o.UniqueID()]; ok {
		return ErrFinishedOrder
	}
	x.active[o.UniqueID()] = o
	return nil
}

// FinishOrder moves the order from active to finished. Idempotent.
func (x *Index) FinishOrder(o Order) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.finished[o.UniqueID()]; ok {
		return
	}
	delete(x.active, o.UniqueID())
	x.finished[o.UniqueID()] = o
}

// GetOrder searches the active bin then the finished bin.
func (x *Index) GetOrder(uniqueID uint64) (Order, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if o, ok := x.active[uniqueID]; ok {
		return o, true
	}
	if o, ok := x.finished[uniqueID]; ok {
		return o, true
	}
	return nil, false
}

// ContainsOrder reports whether the id is present in either bin.
func (x *Index) ContainsOrder(uniqueID uint64) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if _, ok := x.active[uniqueID]; ok {
		return true
	}
	_, ok := x.finished[uniqueID]
	return ok
}

// ActiveCount returns the number of active orders.
func (x *Index) ActiveCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.active)
}

// FinishedCount returns the number of finished orders.
func (x *Index) FinishedCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.finished)
}

// IsActive reports whether the id is in the active bin.
func (x *Index) IsActive(uniqueID uint64) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.active[uniqueID]
	return ok
}

// IsFinished reports whether the id is in the finished bin.
func (x *Index) IsFinished(uniqueID uint64) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.finished[uniqueID]
	return ok
}
