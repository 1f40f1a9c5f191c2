package addr

import "sync"

// alignUp rounds size up to the next multiple of align (align must be a power
// of two, matching the teacher's bit-trick style in vectorclock/epoch).
//
//go:nosplit
func alignUp(size, align uint64) uint64 {
	if align == 0 {
		return size
	}
	return (size + align - 1) &^ (align - 1)
}

// Allocator owns three monotonic pools (static/automatic/heap) and hands out
// fresh, never-reused-within-one-execution addresses (spec §3, §4.C).
//
// Freed addresses are not recycled; a `Free` label in the graph is what makes
// a freed address distinguishable from one that was never allocated. Size is
// tracked per allocation and exposed through SizeOf.
type Allocator struct {
	mu    sync.Mutex
	pools [3]uint64 // indexed by Storage
	sizes map[Addr]uint64
}

// NewAllocator returns a zero-initialized allocator with all three pools at
// offset 0.
func NewAllocator() *Allocator {
	return &Allocator{sizes: make(map[Addr]uint64)}
}

// Alloc bumps the pool for storage by align_up(size, align) and returns the
// aligned start address, per §4.C: "alloc(size, align, is_internal) -> SAddr:
// bumps pool by align_up(size, align); returns the aligned start."
func (al *Allocator) Alloc(storage Storage, size, align uint64, isInternal bool) Addr {
	if align == 0 {
		align = 1
	}
	al.mu.Lock()
	defer al.mu.Unlock()

	start := alignUp(al.pools[storage], align)
	al.pools[storage] = start + alignUp(size, align)
	a := Make(storage, isInternal, start)
	al.sizes[a] = size
	return a
}

// SizeOf returns the tracked size of the allocation whose start address is a,
// and whether such an allocation is known to the allocator.
func (al *Allocator) SizeOf(a Addr) (uint64, bool) {
	al.mu.Lock()
	defer al.mu.Unlock()
	sz, ok := al.sizes[a]
	return sz, ok
}

// Clone deep-copies the allocator for branching into an independent worker
// state (spec §5: "each worker owns a fully independent clone… allocator").
func (al *Allocator) Clone() *Allocator {
	al.mu.Lock()
	defer al.mu.Unlock()
	c := &Allocator{pools: al.pools, sizes: make(map[Addr]uint64, len(al.sizes))}
	for k, v := range al.sizes {
		c.sizes[k] = v
	}
	return c
}
