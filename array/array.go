package array

import (
	"fmt"
	"iter"
	"math"
	"math/bits"
	"reflect"
	"slices"
	"unsafe"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/wippyai/dynarray"
	"github.com/wippyai/dynarray/errors"
)

// Array is a growable array of T with an explicit lifecycle.
// Capacity doubles when an append finds the array full.
// Array is NOT safe for concurrent use; see Synced.
type Array[T any] struct {
	buf       []T // len(buf) is the capacity
	length    int
	opts      Options
	logger    *zap.Logger
	destroyed bool
}

// New creates an array with default options.
func New[T any]() (*Array[T], error) {
	return NewWithOptions[T](DefaultOptions())
}

// NewWithOptions creates an array with capacity opts.InitialCapacity and length 0.
func NewWithOptions[T any](opts Options) (*Array[T], error) {
	if opts.InitialCapacity < 0 {
		return nil, errors.New(errors.PhaseInit, errors.KindInvalidInput).
			Type(typeName[T]()).
			Detail("initial capacity %d is negative", opts.InitialCapacity).
			Build()
	}
	if opts.InitialCapacity == 0 {
		opts.InitialCapacity = DefaultInitialCapacity
	}

	a := &Array[T]{opts: opts, logger: opts.Logger}
	if a.logger == nil {
		a.logger = Logger()
	}

	buf, err := a.allocate(errors.PhaseInit, opts.InitialCapacity)
	if err != nil {
		return nil, a.fail(err, 0)
	}
	a.buf = buf
	a.notify(dynarray.EventCreated, 0)
	return a, nil
}

// Append adds v at index Len(), doubling the capacity first if the array is full.
// On error the array is left exactly as it was.
func (a *Array[T]) Append(v T) error {
	if err := a.check(errors.PhaseAppend); err != nil {
		return err
	}
	if a.length == len(a.buf) {
		if err := a.grow(); err != nil {
			return err
		}
	}
	a.buf[a.length] = v
	a.length++
	return nil
}

// TruncateLast removes the last element. It is a no-op on an empty array.
// Capacity is kept and the vacated slot is not cleared.
func (a *Array[T]) TruncateLast() error {
	if err := a.check(errors.PhaseTruncate); err != nil {
		return err
	}
	if a.length > 0 {
		a.length--
	}
	return nil
}

// Reset sets the length to 0, keeping the capacity.
func (a *Array[T]) Reset() error {
	if err := a.check(errors.PhaseTruncate); err != nil {
		return err
	}
	a.length = 0
	return nil
}

// Destroy releases the storage. A nil array is a no-op.
// Any further use, including a second Destroy, reports KindUseAfterDestroy.
func (a *Array[T]) Destroy() error {
	if a == nil {
		return nil
	}
	if a.destroyed {
		return errors.UseAfterDestroy(errors.PhaseDestroy, typeName[T]())
	}
	prev := len(a.buf)
	a.buf = nil
	a.length = 0
	a.destroyed = true
	a.notify(dynarray.EventDestroyed, prev)
	return nil
}

// Destroyed reports whether Destroy has been called.
func (a *Array[T]) Destroyed() bool {
	return a != nil && a.destroyed
}

// Cap returns the number of elements storable without reallocating.
func (a *Array[T]) Cap() int {
	if a == nil {
		return 0
	}
	return len(a.buf)
}

// Len returns the number of live elements.
func (a *Array[T]) Len() int {
	if a == nil {
		return 0
	}
	return a.length
}

// ElemSize returns the size in bytes of one element.
func (a *Array[T]) ElemSize() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// At returns the element at index i.
func (a *Array[T]) At(i int) (T, error) {
	var zero T
	if err := a.check(errors.PhaseAccess); err != nil {
		return zero, err
	}
	if i < 0 || i >= a.length {
		return zero, errors.OutOfBounds(errors.PhaseAccess, i, a.length)
	}
	return a.buf[i], nil
}

// Set replaces the element at index i.
func (a *Array[T]) Set(i int, v T) error {
	if err := a.check(errors.PhaseAccess); err != nil {
		return err
	}
	if i < 0 || i >= a.length {
		return errors.OutOfBounds(errors.PhaseAccess, i, a.length)
	}
	a.buf[i] = v
	return nil
}

// All returns an iterator over index/element pairs in index order.
// The iterator can be used any number of times. Appending or truncating
// while iterating is not supported.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if a == nil {
			return
		}
		for i := 0; i < a.length; i++ {
			if !yield(i, a.buf[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over the elements in index order.
func (a *Array[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range a.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Each calls fn for every element in index order until fn returns false.
func (a *Array[T]) Each(fn func(T) bool) error {
	if err := a.check(errors.PhaseTraverse); err != nil {
		return err
	}
	for v := range a.Values() {
		if !fn(v) {
			break
		}
	}
	return nil
}

// Slice returns a copy of the live elements.
func (a *Array[T]) Slice() []T {
	if a == nil || a.destroyed {
		return nil
	}
	return slices.Clone(a.buf[:a.length])
}

func (a *Array[T]) check(phase errors.Phase) error {
	if a == nil {
		return errors.New(phase, errors.KindInvalidHandle).
			Type(typeName[T]()).
			Detail("nil array").
			Build()
	}
	if a.destroyed {
		return errors.UseAfterDestroy(phase, typeName[T]())
	}
	return nil
}

// grow doubles the capacity. New storage is allocated and filled before
// the old storage is dropped.
func (a *Array[T]) grow() error {
	oldCap := len(a.buf)
	newCap := oldCap * 2
	if oldCap == 0 {
		newCap = a.opts.InitialCapacity
	}
	if oldCap > math.MaxInt/2 {
		return a.fail(errors.Overflow(errors.PhaseAppend, uint64(oldCap)*2, "int capacity"), oldCap)
	}

	buf, err := a.allocate(errors.PhaseAppend, newCap)
	if err != nil {
		return a.fail(err, oldCap)
	}
	copy(buf, a.buf[:a.length])
	a.buf = buf

	if ce := a.logger.Check(zap.DebugLevel, "array grown"); ce != nil {
		ce.Write(
			zap.String("type", typeName[T]()),
			zap.Int("previous_capacity", oldCap),
			zap.Int("capacity", newCap),
			zap.String("size", humanize.IBytes(uint64(newCap)*uint64(a.ElemSize()))))
	}
	a.notify(dynarray.EventGrown, oldCap)
	return nil
}

// allocate returns zeroed storage for n elements, honoring MaxBytes.
// Runtime allocation panics are reported as allocation errors.
func (a *Array[T]) allocate(phase errors.Phase, n int) (buf []T, err error) {
	size := uint64(a.ElemSize())
	align := uint32(unsafe.Alignof(*new(T)))

	hi, total := bits.Mul64(uint64(n), size)
	if hi != 0 {
		return nil, errors.Overflow(phase, fmt.Sprintf("%d x %d bytes", n, size), "uint64 byte size")
	}
	if a.opts.MaxBytes > 0 && total > a.opts.MaxBytes {
		e := errors.AllocationFailed(phase, total, align)
		e.Type = typeName[T]()
		e.Detail += fmt.Sprintf(", limit %s", humanize.IBytes(a.opts.MaxBytes))
		return nil, e
	}

	defer func() {
		if r := recover(); r != nil {
			e := errors.AllocationFailed(phase, total, align)
			e.Type = typeName[T]()
			e.Cause = fmt.Errorf("%v", r)
			buf, err = nil, e
		}
	}()
	return make([]T, n), nil
}

// fail reports an allocation failure. Under FailFast it does not return.
func (a *Array[T]) fail(err error, prevCap int) error {
	a.notify(dynarray.EventAllocFailed, prevCap)

	fields := []zap.Field{
		zap.String("type", typeName[T]()),
		zap.Int("capacity", len(a.buf)),
		zap.Int("length", a.length),
		zap.Error(err),
	}
	if a.opts.FailFast {
		fatalLogger(a.logger, a.opts.Logger != nil || loggerSet).
			Fatal("failed to allocate memory for array", fields...)
	}
	a.logger.Error("failed to allocate memory for array", fields...)
	return err
}

func (a *Array[T]) notify(t dynarray.EventType, prevCap int) {
	if a.opts.Observer == nil {
		return
	}
	a.opts.Observer.OnArrayEvent(dynarray.Event{
		Type:         t,
		Engine:       dynarray.EngineArray,
		ElemSize:     uint64(a.ElemSize()),
		Capacity:     uint64(len(a.buf)),
		PrevCapacity: uint64(prevCap),
		Length:       uint64(a.length),
	})
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
