package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseAppend,
				Kind:   KindInvalidInput,
				Handle: 7,
				Type:   "int32",
				Detail: "element is 2 bytes, want 4",
			},
			contains: []string{"[append]", "invalid_input", "handle 7", "array of int32", " - element is 2 bytes"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseAccess,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[access]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMemory,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[memory]", "allocation", ": memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseAppend,
		Kind:  KindAllocation,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseDestroy,
		Kind:   KindUseAfterDestroy,
		Detail: "array already destroyed",
	}

	if !err.Is(&Error{Phase: PhaseDestroy, Kind: KindUseAfterDestroy}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseAppend, Kind: KindUseAfterDestroy}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseDestroy, Kind: KindInvalidHandle}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDestroy, Kind: KindUseAfterDestroy}
	if !errors.Is(fmt.Errorf("teardown: %w", err), target) {
		t.Error("errors.Is should match through wrapping")
	}
}

func TestIsKind(t *testing.T) {
	inner := AllocationFailed(PhaseAlloc, 4096, 8)
	outer := Wrap(PhaseAppend, KindInvalidData, inner, "grow")

	if !IsKind(outer, KindInvalidData) {
		t.Error("IsKind should match outer kind")
	}
	if !IsKind(outer, KindAllocation) {
		t.Error("IsKind should match kind in cause chain")
	}
	if !IsKind(fmt.Errorf("wrapped: %w", outer), KindAllocation) {
		t.Error("IsKind should look through fmt wrapping")
	}
	if IsKind(outer, KindOutOfBounds) {
		t.Error("IsKind should not match absent kind")
	}
	if IsKind(errors.New("plain"), KindAllocation) {
		t.Error("IsKind should not match plain errors")
	}
	if IsKind(nil, KindAllocation) {
		t.Error("IsKind should not match nil")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseAppend, KindInvalidInput).
		Type("uint16").
		Handle(3).
		Value(42).
		Cause(cause).
		Detail("element is %d bytes, want %d", 4, 2).
		Build()

	if err.Phase != PhaseAppend {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseAppend)
	}
	if err.Kind != KindInvalidInput {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
	}
	if err.Type != "uint16" {
		t.Errorf("Type = %v, want 'uint16'", err.Type)
	}
	if err.Handle != 3 {
		t.Errorf("Handle = %v, want 3", err.Handle)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "element is 4 bytes, want 2" {
		t.Errorf("Detail = %v, want 'element is 4 bytes, want 2'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseAppend, 1024, 8)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1.0 KiB") {
			t.Errorf("Detail = %v, should contain humanized size", err.Detail)
		}
		if err.Value != uint64(1024) {
			t.Errorf("Value = %v, want 1024", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseAppend, uint64(1<<33), "uint32 capacity")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if !strings.Contains(err.Detail, "uint32 capacity") {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseAccess, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("InvalidHandle", func(t *testing.T) {
		err := InvalidHandle(PhaseDestroy, 9)
		if err.Kind != KindInvalidHandle || err.Handle != 9 {
			t.Errorf("Kind=%v Handle=%v", err.Kind, err.Handle)
		}
	})

	t.Run("UseAfterDestroy", func(t *testing.T) {
		err := UseAfterDestroy(PhaseAppend, "int")
		if err.Kind != KindUseAfterDestroy || err.Type != "int" {
			t.Errorf("Kind=%v Type=%v", err.Kind, err.Type)
		}
	})

	t.Run("Borrowed", func(t *testing.T) {
		err := Borrowed(PhaseAppend, 2)
		if err.Kind != KindBorrowed {
			t.Errorf("Kind = %v, want %v", err.Kind, KindBorrowed)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		err := Closed(PhaseInit, "engine")
		if err.Kind != KindClosed || err.Detail != "engine closed" {
			t.Errorf("Kind=%v Detail=%v", err.Kind, err.Detail)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput(PhaseInit, "element size must be positive")
		if err.Kind != KindInvalidInput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
		}
	})

	t.Run("InvalidData", func(t *testing.T) {
		err := InvalidData(PhaseAccess, "bad header magic")
		if err.Kind != KindInvalidData {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidData)
		}
	})
}
