package raw

import (
	"math"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/dynarray"
	"github.com/wippyai/dynarray/errors"
	"github.com/wippyai/dynarray/resource"
)

// Header layout. All fields are little-endian uint32.
const (
	offMagic    = 0
	offCapacity = 4
	offLength   = 8
	offElemSize = 12

	// HeaderSize is the size of the metadata preceding slot 0.
	HeaderSize = 16

	// Align is the alignment of every array block.
	Align = 8

	// Magic marks a live header. Destroy clears it.
	Magic uint32 = 0x59415244

	// InitialCapacity is the capacity of a freshly initialized array.
	InitialCapacity = 2
)

// Options configures engine behavior.
type Options struct {
	// Logger overrides the package logger for this engine.
	Logger *zap.Logger

	// Observer receives lifecycle events for every array of the engine.
	Observer dynarray.Observer

	// MaxCapacity caps the capacity of any array. 0 means no cap beyond
	// what fits in a uint32 block size.
	MaxCapacity uint32

	// FailFast terminates the process after logging a fatal diagnostic when
	// a block cannot be allocated, instead of returning an error.
	FailFast bool
}

// DefaultOptions returns default engine configuration.
func DefaultOptions() Options {
	return Options{}
}

type header struct {
	capacity uint32
	length   uint32
	elemSize uint32
}

// Engine manages arrays stored header-first inside a Memory.
// Each array is one block obtained from the Allocator: a 16 byte header
// followed by capacity slots of elemSize bytes. Handles are stable across
// growth; their rep is the address of slot 0.
//
// Engine is NOT safe for concurrent use.
type Engine struct {
	mem     dynarray.Memory
	alloc   dynarray.Allocator
	handles *resource.Table
	logger  *zap.Logger
	opts    Options
	closed  bool
}

// NewEngine creates an engine storing arrays in mem with blocks from alloc.
func NewEngine(mem dynarray.Memory, alloc dynarray.Allocator, opts Options) *Engine {
	l := opts.Logger
	if l == nil {
		l = Logger()
	}
	return &Engine{
		mem:     mem,
		alloc:   alloc,
		handles: resource.NewTable(),
		logger:  l,
		opts:    opts,
	}
}

// Memory returns the memory arrays are stored in.
func (e *Engine) Memory() dynarray.Memory {
	return e.mem
}

// Init allocates an array of elemSize-byte elements with capacity
// InitialCapacity and length 0.
func (e *Engine) Init(elemSize uint32) (resource.Handle, error) {
	if e.closed {
		return 0, errors.Closed(errors.PhaseInit, "engine")
	}
	if elemSize == 0 {
		return 0, errors.InvalidInput(errors.PhaseInit, "element size must be positive")
	}

	size, err := e.blockSize(errors.PhaseInit, InitialCapacity, elemSize)
	if err != nil {
		return 0, err
	}
	ptr, err := e.alloc.Alloc(size, Align)
	if err != nil {
		return 0, e.fail(errors.Wrap(errors.PhaseInit, errors.KindAllocation, err, "allocate array block"), 0, header{elemSize: elemSize})
	}

	hdr := header{capacity: InitialCapacity, elemSize: elemSize}
	if err := e.writeHeader(ptr, Magic, hdr); err != nil {
		e.alloc.Free(ptr, size, Align)
		return 0, err
	}

	h, err := e.handles.New(elemSize, ptr+HeaderSize)
	if err != nil {
		e.alloc.Free(ptr, size, Align)
		return 0, errors.Wrap(errors.PhaseInit, errors.KindClosed, err, "register handle")
	}

	e.notify(dynarray.EventCreated, hdr, 0)
	return h, nil
}

// Append copies elem into the slot at index Length, doubling the capacity
// first if the array is full. On error the array is left as it was.
// Growth relocates the block; the handle stays valid.
func (e *Engine) Append(h resource.Handle, elem []byte) error {
	data, hdr, err := e.resolve(errors.PhaseAppend, h)
	if err != nil {
		return err
	}
	if uint64(len(elem)) != uint64(hdr.elemSize) {
		return errors.New(errors.PhaseAppend, errors.KindInvalidInput).
			Handle(uint32(h)).
			Detail("element is %d bytes, want %d", len(elem), hdr.elemSize).
			Build()
	}

	if hdr.length == hdr.capacity {
		if e.handles.Borrowed(h) {
			return errors.Borrowed(errors.PhaseAppend, uint32(h))
		}
		data, hdr, err = e.grow(h, data, hdr)
		if err != nil {
			return err
		}
	}

	if err := e.mem.Write(data+hdr.length*hdr.elemSize, elem); err != nil {
		return errors.Wrap(errors.PhaseAppend, errors.KindInvalidData, err, "write element")
	}
	return e.mem.WriteU32(data-HeaderSize+offLength, hdr.length+1)
}

// TruncateLast removes the last element. It is a no-op on an empty array.
// Capacity is kept and the vacated slot is not cleared.
func (e *Engine) TruncateLast(h resource.Handle) error {
	data, hdr, err := e.resolve(errors.PhaseTruncate, h)
	if err != nil {
		return err
	}
	if hdr.length == 0 {
		return nil
	}
	return e.mem.WriteU32(data-HeaderSize+offLength, hdr.length-1)
}

// Destroy releases the array's block and invalidates the handle.
// Handle 0 is a no-op. Destroying an unknown or already destroyed handle
// reports KindInvalidHandle.
func (e *Engine) Destroy(h resource.Handle) error {
	if h == 0 {
		return nil
	}
	data, hdr, err := e.resolve(errors.PhaseDestroy, h)
	if err != nil {
		return err
	}
	if _, err := e.handles.Drop(h); err != nil {
		if err == resource.ErrOutstandingBorrow {
			return errors.Borrowed(errors.PhaseDestroy, uint32(h))
		}
		return errors.InvalidHandle(errors.PhaseDestroy, uint32(h))
	}

	ptr := data - HeaderSize
	size, err := e.blockSize(errors.PhaseDestroy, hdr.capacity, hdr.elemSize)
	if err != nil {
		e.logger.Warn("Destroy: block size out of range",
			zap.Uint32("handle", uint32(h)),
			zap.Uint32("address", ptr),
			zap.Error(err))
	}
	werr := e.mem.WriteU32(ptr+offMagic, 0)
	e.alloc.Free(ptr, size, Align)
	e.notify(dynarray.EventDestroyed, header{elemSize: hdr.elemSize, length: 0}, hdr.capacity)
	return werr
}

// Capacity returns the number of slots of the array.
func (e *Engine) Capacity(h resource.Handle) (uint32, error) {
	_, hdr, err := e.resolve(errors.PhaseAccess, h)
	return hdr.capacity, err
}

// Length returns the number of live elements.
func (e *Engine) Length(h resource.Handle) (uint32, error) {
	_, hdr, err := e.resolve(errors.PhaseAccess, h)
	return hdr.length, err
}

// ElementSize returns the size in bytes of one element.
func (e *Engine) ElementSize(h resource.Handle) (uint32, error) {
	_, hdr, err := e.resolve(errors.PhaseAccess, h)
	return hdr.elemSize, err
}

// Data returns the address of slot 0. It changes when the array grows.
func (e *Engine) Data(h resource.Handle) (uint32, error) {
	data, _, err := e.resolve(errors.PhaseAccess, h)
	return data, err
}

// At returns a copy of the element at index i.
func (e *Engine) At(h resource.Handle, i int) ([]byte, error) {
	data, hdr, err := e.resolve(errors.PhaseAccess, h)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= int(hdr.length) {
		return nil, errors.OutOfBounds(errors.PhaseAccess, i, int(hdr.length))
	}
	b, err := e.mem.Read(data+uint32(i)*hdr.elemSize, hdr.elemSize)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Set overwrites the element at index i.
func (e *Engine) Set(h resource.Handle, i int, elem []byte) error {
	data, hdr, err := e.resolve(errors.PhaseAccess, h)
	if err != nil {
		return err
	}
	if i < 0 || i >= int(hdr.length) {
		return errors.OutOfBounds(errors.PhaseAccess, i, int(hdr.length))
	}
	if uint64(len(elem)) != uint64(hdr.elemSize) {
		return errors.New(errors.PhaseAccess, errors.KindInvalidInput).
			Handle(uint32(h)).
			Detail("element is %d bytes, want %d", len(elem), hdr.elemSize).
			Build()
	}
	return e.mem.Write(data+uint32(i)*hdr.elemSize, elem)
}

// ForEach calls fn with a window of ElementSize bytes for every live element
// in index order, until fn returns false. The windows alias the array's
// storage and are only valid during the call.
//
// The handle is borrowed while ForEach runs: appends that would relocate the
// storage and Destroy fail with KindBorrowed.
func (e *Engine) ForEach(h resource.Handle, fn func(elem []byte) bool) error {
	data, hdr, err := e.resolve(errors.PhaseTraverse, h)
	if err != nil {
		return err
	}
	if !e.handles.Borrow(h) {
		return errors.InvalidHandle(errors.PhaseTraverse, uint32(h))
	}
	defer e.handles.ReturnBorrow(h)

	es := hdr.elemSize
	region, err := e.mem.Read(data, hdr.length*es)
	if err != nil {
		return errors.Wrap(errors.PhaseTraverse, errors.KindInvalidData, err, "read elements")
	}
	for i := uint32(0); i < hdr.length; i++ {
		lo, hi := i*es, (i+1)*es
		if !fn(region[lo:hi:hi]) {
			break
		}
	}
	return nil
}

// Live returns the number of arrays not yet destroyed.
func (e *Engine) Live() int {
	return e.handles.Len()
}

// Close destroys every live array and rejects further Init calls.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var live []resource.Handle
	e.handles.Each(func(h resource.Handle, _, _ uint32) bool {
		live = append(live, h)
		return true
	})

	var err error
	for _, h := range live {
		err = multierr.Append(err, e.Destroy(h))
	}
	return multierr.Append(err, e.handles.Close())
}

// resolve maps a handle to its data address and validated header.
func (e *Engine) resolve(phase errors.Phase, h resource.Handle) (uint32, header, error) {
	data, ok := e.handles.Rep(h)
	if !ok {
		return 0, header{}, errors.InvalidHandle(phase, uint32(h))
	}
	tag, _ := e.handles.Tag(h)

	ptr := data - HeaderSize
	magic, err := e.mem.ReadU32(ptr + offMagic)
	if err != nil {
		return 0, header{}, errors.Wrap(phase, errors.KindInvalidData, err, "read header")
	}
	hdr, err := e.readHeader(ptr)
	if err != nil {
		return 0, header{}, errors.Wrap(phase, errors.KindInvalidData, err, "read header")
	}
	if magic != Magic || hdr.elemSize != tag || hdr.length > hdr.capacity {
		return 0, header{}, errors.New(phase, errors.KindInvalidData).
			Handle(uint32(h)).
			Detail("corrupt header at %#x (magic %#x, capacity %d, length %d, element size %d)",
				ptr, magic, hdr.capacity, hdr.length, hdr.elemSize).
			Build()
	}
	return data, hdr, nil
}

// grow moves the array to a block of twice the capacity. The new block is
// filled before the old one is freed.
func (e *Engine) grow(h resource.Handle, data uint32, hdr header) (uint32, header, error) {
	newCap := uint64(hdr.capacity) * 2
	if newCap == 0 {
		newCap = InitialCapacity
	}
	limit := uint64(math.MaxUint32)
	if e.opts.MaxCapacity > 0 {
		limit = uint64(e.opts.MaxCapacity)
	}
	if newCap > limit {
		return 0, hdr, e.fail(errors.Overflow(errors.PhaseAppend, newCap, "maximum capacity"), hdr.capacity, hdr)
	}

	newSize, err := e.blockSize(errors.PhaseAppend, uint32(newCap), hdr.elemSize)
	if err != nil {
		return 0, hdr, e.fail(err, hdr.capacity, hdr)
	}
	newPtr, err := e.alloc.Alloc(newSize, Align)
	if err != nil {
		return 0, hdr, e.fail(errors.Wrap(errors.PhaseAppend, errors.KindAllocation, err, "grow array block"), hdr.capacity, hdr)
	}

	oldPtr := data - HeaderSize
	old, err := e.mem.Read(oldPtr, HeaderSize+hdr.length*hdr.elemSize)
	if err == nil {
		err = e.mem.Write(newPtr, old)
	}
	if err == nil {
		err = e.mem.WriteU32(newPtr+offCapacity, uint32(newCap))
	}
	if err != nil {
		e.alloc.Free(newPtr, newSize, Align)
		return 0, hdr, errors.Wrap(errors.PhaseAppend, errors.KindInvalidData, err, "copy array block")
	}

	// oldSize cannot overflow: the block was allocated with it.
	oldSize, _ := e.blockSize(errors.PhaseAppend, hdr.capacity, hdr.elemSize)
	if err := e.mem.WriteU32(oldPtr+offMagic, 0); err != nil {
		e.logger.Warn("grow: failed to clear header of relocated block",
			zap.Uint32("handle", uint32(h)),
			zap.Uint32("address", oldPtr),
			zap.Error(err))
	}
	e.alloc.Free(oldPtr, oldSize, Align)
	e.handles.SetRep(h, newPtr+HeaderSize)

	prevCap := hdr.capacity
	hdr.capacity = uint32(newCap)

	if ce := e.logger.Check(zap.DebugLevel, "array grown"); ce != nil {
		ce.Write(
			zap.Uint32("handle", uint32(h)),
			zap.Uint32("previous_capacity", prevCap),
			zap.Uint32("capacity", hdr.capacity),
			zap.Uint32("address", newPtr),
			zap.String("size", humanize.IBytes(uint64(newSize))))
	}
	e.notify(dynarray.EventGrown, hdr, prevCap)
	return newPtr + HeaderSize, hdr, nil
}

func (e *Engine) blockSize(phase errors.Phase, capacity, elemSize uint32) (uint32, error) {
	total := HeaderSize + uint64(capacity)*uint64(elemSize)
	if total > math.MaxUint32 {
		return 0, errors.Overflow(phase, total, "uint32 block size")
	}
	return uint32(total), nil
}

func (e *Engine) readHeader(ptr uint32) (header, error) {
	var hdr header
	var err error
	if hdr.capacity, err = e.mem.ReadU32(ptr + offCapacity); err != nil {
		return hdr, err
	}
	if hdr.length, err = e.mem.ReadU32(ptr + offLength); err != nil {
		return hdr, err
	}
	hdr.elemSize, err = e.mem.ReadU32(ptr + offElemSize)
	return hdr, err
}

func (e *Engine) writeHeader(ptr, magic uint32, hdr header) error {
	return multierr.Combine(
		e.mem.WriteU32(ptr+offMagic, magic),
		e.mem.WriteU32(ptr+offCapacity, hdr.capacity),
		e.mem.WriteU32(ptr+offLength, hdr.length),
		e.mem.WriteU32(ptr+offElemSize, hdr.elemSize),
	)
}

// fail reports an allocation failure. Under FailFast it does not return.
func (e *Engine) fail(err error, prevCap uint32, hdr header) error {
	e.notify(dynarray.EventAllocFailed, hdr, prevCap)

	fields := []zap.Field{
		zap.Uint32("capacity", hdr.capacity),
		zap.Uint32("length", hdr.length),
		zap.Uint32("element_size", hdr.elemSize),
		zap.Error(err),
	}
	if e.opts.FailFast {
		fatalLogger(e.logger, e.opts.Logger != nil || loggerSet).
			Fatal("failed to allocate memory for array", fields...)
	}
	e.logger.Error("failed to allocate memory for array", fields...)
	return err
}

func (e *Engine) notify(t dynarray.EventType, hdr header, prevCap uint32) {
	if e.opts.Observer == nil {
		return
	}
	e.opts.Observer.OnArrayEvent(dynarray.Event{
		Type:         t,
		Engine:       dynarray.EngineRaw,
		ElemSize:     uint64(hdr.elemSize),
		Capacity:     uint64(hdr.capacity),
		PrevCapacity: uint64(prevCap),
		Length:       uint64(hdr.length),
	})
}
