// Package alloc implements dynarray.Allocator over a growable memory.
//
// FreeList keeps an address-ordered list of free spans. Alloc takes the first
// span that fits (after alignment), splitting off the remainder. Free returns
// the block and merges it with adjacent free spans. When nothing fits the
// memory is grown by whole pages and the search is repeated once.
//
// Addresses below ReservedBytes are never handed out, so 0 always means
// "no block".
package alloc

import (
	"sort"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/wippyai/dynarray/errors"
	"github.com/wippyai/dynarray/memory"
)

// ReservedBytes is the size of the never-allocated prefix of the memory.
const ReservedBytes = 8

// granule is the rounding unit for block sizes.
const granule = 8

type span struct {
	off  uint64
	size uint64
}

// Stats reports allocator occupancy.
type Stats struct {
	InUse  uint64
	Free   uint64
	Blocks int
}

// FreeList is a first-fit allocator with coalescing.
// FreeList is not safe for concurrent use.
type FreeList struct {
	mem    memory.Growable
	free   []span
	used   map[uint32]uint64
	inUse  uint64
	logger *zap.Logger
}

// NewFreeList creates an allocator owning all of mem beyond ReservedBytes.
func NewFreeList(mem memory.Growable) *FreeList {
	a := &FreeList{
		mem:    mem,
		used:   make(map[uint32]uint64),
		logger: Logger(),
	}
	if size := uint64(mem.Size()); size > ReservedBytes {
		a.free = append(a.free, span{off: ReservedBytes, size: size - ReservedBytes})
	}
	return a
}

// Memory returns the memory the allocator manages.
func (a *FreeList) Memory() memory.Growable {
	return a.mem
}

// Alloc reserves size bytes aligned to align and returns the block address.
func (a *FreeList) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Detail("alignment %d is not a power of two", align).
			Value(align).
			Build()
	}
	need := alignUp(max(uint64(size), 1), granule)

	if ptr, ok := a.take(need, uint64(align)); ok {
		return ptr, nil
	}
	if err := a.grow(need + uint64(align)); err != nil {
		a.logger.Debug("allocation failed",
			zap.Uint32("size", size),
			zap.Uint32("align", align),
			zap.Error(err))
		return 0, errors.AllocationFailed(errors.PhaseAlloc, uint64(size), align)
	}
	if ptr, ok := a.take(need, uint64(align)); ok {
		return ptr, nil
	}
	return 0, errors.AllocationFailed(errors.PhaseAlloc, uint64(size), align)
}

// Free releases a block previously returned by Alloc.
// Unknown or already freed addresses are ignored and logged.
func (a *FreeList) Free(ptr, size, align uint32) {
	blockSize, ok := a.used[ptr]
	if !ok {
		a.logger.Warn("Free: ignoring unknown block",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size))
		return
	}
	delete(a.used, ptr)
	a.inUse -= blockSize
	a.release(span{off: uint64(ptr), size: blockSize})
}

// Stats returns current occupancy.
func (a *FreeList) Stats() Stats {
	var free uint64
	for _, s := range a.free {
		free += s.size
	}
	return Stats{InUse: a.inUse, Free: free, Blocks: len(a.used)}
}

func (a *FreeList) take(need, align uint64) (uint32, bool) {
	for i, s := range a.free {
		start := alignUp(s.off, align)
		pad := start - s.off
		if pad+need > s.size {
			continue
		}

		var repl []span
		if pad > 0 {
			repl = append(repl, span{off: s.off, size: pad})
		}
		if rest := s.size - pad - need; rest > 0 {
			repl = append(repl, span{off: start + need, size: rest})
		}
		a.free = append(a.free[:i], append(repl, a.free[i+1:]...)...)

		a.used[uint32(start)] = need
		a.inUse += need
		return uint32(start), true
	}
	return 0, false
}

// grow extends the memory so that a span of at least need bytes exists at its end.
func (a *FreeList) grow(need uint64) error {
	end := uint64(a.mem.Size())
	tail := uint64(0)
	if n := len(a.free); n > 0 && a.free[n-1].off+a.free[n-1].size == end {
		tail = a.free[n-1].size
	}
	missing := need - min(need, tail)
	pages := (missing + memory.PageSize - 1) / memory.PageSize
	if pages == 0 {
		pages = 1
	}
	if pages > memory.MaxPages {
		return errors.Overflow(errors.PhaseAlloc, pages, "memory page limit")
	}

	prev, ok := a.mem.Grow(uint32(pages))
	if !ok {
		return errors.New(errors.PhaseMemory, errors.KindAllocation).
			Detail("cannot grow memory by %d pages", pages).
			Build()
	}
	a.logger.Debug("memory grown",
		zap.Uint32("previous_pages", prev),
		zap.Uint64("delta_pages", pages),
		zap.String("size", humanize.IBytes(uint64(a.mem.Size()))))

	a.release(span{off: uint64(prev) * memory.PageSize, size: pages * memory.PageSize})
	return nil
}

// release inserts s into the free list, merging with neighbours.
func (a *FreeList) release(s span) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off > s.off })

	if i > 0 && a.free[i-1].off+a.free[i-1].size == s.off {
		a.free[i-1].size += s.size
		if i < len(a.free) && a.free[i-1].off+a.free[i-1].size == a.free[i].off {
			a.free[i-1].size += a.free[i].size
			a.free = append(a.free[:i], a.free[i+1:]...)
		}
		return
	}
	if i < len(a.free) && s.off+s.size == a.free[i].off {
		a.free[i].off = s.off
		a.free[i].size += s.size
		return
	}
	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
