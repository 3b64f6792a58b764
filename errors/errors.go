package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Phase indicates which operation produced the error
type Phase string

const (
	PhaseInit     Phase = "init"     // array initialization
	PhaseAppend   Phase = "append"   // append and growth
	PhaseTruncate Phase = "truncate" // truncate_last
	PhaseDestroy  Phase = "destroy"  // teardown
	PhaseAccess   Phase = "access"   // queries and indexed access
	PhaseTraverse Phase = "traverse" // for-each traversal
	PhaseAlloc    Phase = "alloc"    // allocator operations
	PhaseMemory   Phase = "memory"   // memory reads, writes and growth
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation      Kind = "allocation"
	KindOverflow        Kind = "overflow"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindInvalidInput    Kind = "invalid_input"
	KindInvalidHandle   Kind = "invalid_handle"
	KindUseAfterDestroy Kind = "use_after_destroy"
	KindBorrowed        Kind = "borrowed"
	KindInvalidData     Kind = "invalid_data"
	KindClosed          Kind = "closed"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Handle uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handle != 0 {
		fmt.Fprintf(&b, " at handle %d", e.Handle)
	}

	if e.Type != "" {
		b.WriteString(": array of ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Type sets the element type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Handle sets the handle the operation was applied to
func (b *Builder) Handle(h uint32) *Builder {
	b.err.Handle = h
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size uint64, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %s (align %d)", humanize.IBytes(size), align),
		Value:  size,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, value any, limit string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("value %v overflows %s", value, limit),
		Value:  value,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidHandle creates an error for a handle that is unknown or destroyed
func InvalidHandle(phase Phase, handle uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Handle: handle,
		Detail: "handle is not live",
	}
}

// UseAfterDestroy creates an error for operations on a destroyed array
func UseAfterDestroy(phase Phase, typeName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUseAfterDestroy,
		Type:   typeName,
		Detail: "array already destroyed",
	}
}

// Borrowed creates an error for mutations attempted during a traversal
func Borrowed(phase Phase, handle uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBorrowed,
		Handle: handle,
		Detail: "array is borrowed by an active traversal",
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// Closed creates an error for operations on a closed engine or memory
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
