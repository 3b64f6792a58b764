package array

import (
	"sync"
)

// Synced guards an Array with a single read-write lock covering the whole
// array. Mutations take the write lock; queries and traversals share the
// read lock, so no reader can observe storage while an append relocates it.
//
// Callbacks passed to Each and Do run with the lock held and must not call
// back into the same Synced.
type Synced[T any] struct {
	arr *Array[T]
	mu  sync.RWMutex
}

// NewSynced creates a locked array.
func NewSynced[T any](opts Options) (*Synced[T], error) {
	arr, err := NewWithOptions[T](opts)
	if err != nil {
		return nil, err
	}
	return &Synced[T]{arr: arr}, nil
}

// Sync wraps an existing array. The caller must stop using arr directly.
func Sync[T any](arr *Array[T]) *Synced[T] {
	return &Synced[T]{arr: arr}
}

// Append adds v to the end of the array.
func (s *Synced[T]) Append(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arr.Append(v)
}

// TruncateLast removes the last element, if any.
func (s *Synced[T]) TruncateLast() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arr.TruncateLast()
}

// Set replaces the element at index i.
func (s *Synced[T]) Set(i int, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arr.Set(i, v)
}

// Destroy releases the storage.
func (s *Synced[T]) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arr.Destroy()
}

// Cap returns the capacity.
func (s *Synced[T]) Cap() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arr.Cap()
}

// Len returns the number of live elements.
func (s *Synced[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arr.Len()
}

// ElemSize returns the size in bytes of one element.
func (s *Synced[T]) ElemSize() uintptr {
	return s.arr.ElemSize()
}

// At returns the element at index i.
func (s *Synced[T]) At(i int) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arr.At(i)
}

// Slice returns a copy of the live elements.
func (s *Synced[T]) Slice() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arr.Slice()
}

// Each traverses the elements under the read lock.
func (s *Synced[T]) Each(fn func(T) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arr.Each(fn)
}

// Do runs fn with exclusive access to the underlying array, for compound
// operations that must be atomic.
func (s *Synced[T]) Do(fn func(*Array[T]) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.arr)
}
