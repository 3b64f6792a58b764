package array

import (
	"go.uber.org/zap"

	"github.com/wippyai/dynarray"
)

// DefaultInitialCapacity is the capacity of a freshly initialized array.
const DefaultInitialCapacity = 2

// Options configures array behavior.
type Options struct {
	// Logger overrides the package logger for this array.
	Logger *zap.Logger

	// Observer receives lifecycle events (created, grown, destroyed, alloc_failed).
	Observer dynarray.Observer

	// InitialCapacity is the capacity allocated at initialization.
	// 0 means DefaultInitialCapacity.
	InitialCapacity int

	// MaxBytes caps the storage size (capacity * element size).
	// Growth beyond it fails with an allocation error. 0 means unlimited.
	MaxBytes uint64

	// FailFast terminates the process after logging a fatal diagnostic when
	// storage cannot be allocated, instead of returning an error.
	FailFast bool
}

// DefaultOptions returns default array configuration.
func DefaultOptions() Options {
	return Options{
		InitialCapacity: DefaultInitialCapacity,
	}
}
