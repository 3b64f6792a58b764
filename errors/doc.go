// Package errors provides structured error types for dynarray.
//
// Errors are categorized by Phase (which operation failed) and Kind (error category).
// The Error type carries the element type name, the handle for raw arrays, and a
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAppend, errors.KindInvalidInput).
//		Handle(uint32(h)).
//		Detail("element is %d bytes, want %d", len(elem), size).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseAccess, 10, 5)
//	err := errors.AllocationFailed(errors.PhaseAppend, 1<<20, 8)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches on kind regardless of phase.
package errors
