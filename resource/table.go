package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("handle table closed")
	ErrInvalidHandle     = errors.New("handle is not live")
	ErrOutstandingBorrow = errors.New("cannot drop handle with outstanding borrows")
	ErrTableFull         = errors.New("handle table full")
)

// Handle layout: the low indexBits hold the 1-based slot index, the high
// bits hold the slot generation.
const (
	indexBits = 20
	indexMask = 1<<indexBits - 1

	// MaxHandles is the number of slots a Table can hold.
	MaxHandles = indexMask

	genMask = 1<<(32-indexBits) - 1
)

// Handle is an opaque, stable reference to an entry in a Table.
// Handle 0 is reserved and always invalid. Dropping a handle bumps its
// slot generation, so a stale handle stays invalid after the slot is reused
// (until the generation wraps after 4096 reuses of the same slot).
type Handle uint32

func makeHandle(index, gen uint32) Handle {
	return Handle(gen<<indexBits | index)
}

func (h Handle) index() uint32 { return uint32(h) & indexMask }

func (h Handle) gen() uint32 { return uint32(h) >> indexBits }

// Table maps handles to representation values with borrow tracking.
// A rep is typically an address in a Memory; it can change over the
// handle's lifetime (SetRep) without invalidating the handle.
// Table is safe for concurrent use.
type Table struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	rep         uint32
	tag         uint32
	borrowCount uint32
	gen         uint32
	valid       bool
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// New registers rep under a fresh handle. tag is caller-defined and
// immutable for the handle's lifetime.
func (t *Table) New(tag, rep uint32) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	e := entry{
		tag:   tag,
		rep:   rep,
		valid: true,
	}

	if len(t.freeList) > 0 {
		idx := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		e.gen = t.entries[idx-1].gen
		t.entries[idx-1] = e
		return makeHandle(idx, e.gen), nil
	}

	if len(t.entries) >= MaxHandles {
		return 0, ErrTableFull
	}
	t.entries = append(t.entries, e)
	return makeHandle(uint32(len(t.entries)), 0), nil
}

// lookup returns the live entry for handle. Callers hold t.mu.
func (t *Table) lookup(handle Handle) *entry {
	idx := handle.index()
	if idx == 0 || int(idx) > len(t.entries) {
		return nil
	}
	e := &t.entries[idx-1]
	if !e.valid || e.gen != handle.gen() {
		return nil
	}
	return e
}

// Rep returns the representation value for a handle.
func (t *Table) Rep(handle Handle) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e := t.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.rep, true
}

// SetRep replaces the representation value of a live handle.
func (t *Table) SetRep(handle Handle, rep uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(handle)
	if e == nil {
		return false
	}
	e.rep = rep
	return true
}

// Tag returns the tag a handle was created with.
func (t *Table) Tag(handle Handle) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e := t.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.tag, true
}

// Borrow increments the borrow count for a handle.
func (t *Table) Borrow(handle Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(handle)
	if e == nil {
		return false
	}
	e.borrowCount++
	return true
}

// ReturnBorrow decrements the borrow count for a handle.
func (t *Table) ReturnBorrow(handle Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(handle)
	if e == nil || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

// Borrowed reports whether a live handle has outstanding borrows.
func (t *Table) Borrowed(handle Handle) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e := t.lookup(handle)
	return e != nil && e.borrowCount > 0
}

// Drop invalidates a handle and returns its final rep.
// It fails with ErrInvalidHandle for unknown handles and with
// ErrOutstandingBorrow while the handle is borrowed.
func (t *Table) Drop(handle Handle) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(handle)
	if e == nil {
		return 0, ErrInvalidHandle
	}
	if e.borrowCount > 0 {
		return 0, ErrOutstandingBorrow
	}

	rep := e.rep
	*e = entry{gen: (e.gen + 1) & genMask}
	t.freeList = append(t.freeList, handle.index())
	return rep, nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries) - len(t.freeList)
}

// Each iterates over live handles in handle order.
// fn must not call back into the table.
func (t *Table) Each(fn func(h Handle, tag, rep uint32) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(makeHandle(uint32(i+1), e.gen), e.tag, e.rep) {
				break
			}
		}
	}
}

// Close invalidates every handle and rejects further registrations.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.entries = nil
	t.freeList = nil
	return nil
}
