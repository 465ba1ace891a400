package order

import (
	"sync"
	"sync/atomic"
)

// seqBits is the number of low bits carrying the per-strategy sequence.
// The strategy id occupies the 24 bits above, so ids from different
// strategies can never collide. Strategy ids must fit in 24 bits.
const seqBits = 40

// UniqueIDAllocator generates process-wide unique order ids, partitioned
// by strategy. Safe for concurrent use.
type UniqueIDAllocator struct {
	mu   sync.Mutex
	seqs map[uint32]*atomic.Uint64
}

// NewUniqueIDAllocator creates an empty allocator.
func NewUniqueIDAllocator() *UniqueIDAllocator {
	return &UniqueIDAllocator{seqs: make(map[uint32]*atomic.Uint64)}
}

// Allocate returns the next unique id for the strategy.
func (a *UniqueIDAllocator) Allocate(strategyID uint32) uint64 {
	seq := a.sequence(strategyID)
	return uint64(strategyID)<<seqBits | (seq.Add(1) & (1<<seqBits - 1))
}

func (a *UniqueIDAllocator) sequence(strategyID uint32) *atomic.Uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	seq, ok := a.seqs[strategyID]
	if !ok {
		seq = new(atomic.Uint64)
		a.seqs[strategyID] = seq
	}
	return seq
}

// StrategyOf extracts the allocating strategy id from a unique id.
func StrategyOf(uniqueID uint64) uint32 {
	return uint32(uniqueID >> seqBits)
}
