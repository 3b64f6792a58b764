package memory

import (
	"testing"

	"github.com/wippyai/dynarray/errors"
)

func TestHeap_Defaults(t *testing.T) {
	h := NewHeap(nil)
	if h.Size() != PageSize {
		t.Fatalf("Size = %d, want %d", h.Size(), PageSize)
	}
	if h.maxPages != DefaultMaxPages {
		t.Fatalf("maxPages = %d, want %d", h.maxPages, DefaultMaxPages)
	}
}

func TestHeap_ConfigClamps(t *testing.T) {
	h := NewHeap(&Config{InitialPages: 4, MaxPages: 2})
	if h.Pages() != 2 {
		t.Errorf("Pages = %d, want initial clamped to max 2", h.Pages())
	}

	h = NewHeap(&Config{MaxPages: 1 << 20})
	if h.maxPages != MaxPages {
		t.Errorf("maxPages = %d, want %d", h.maxPages, MaxPages)
	}
}

func TestHeap_ReadWrite(t *testing.T) {
	h := NewHeap(nil)

	if err := h.Write(10, []byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	b, err := h.Read(10, 5)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(b) != "hello" {
		t.Errorf("Read = %q", b)
	}

	if err := h.WriteU32(100, 0xCAFEBABE); err != nil {
		t.Fatal(err)
	}
	if v, _ := h.ReadU32(100); v != 0xCAFEBABE {
		t.Errorf("ReadU32 = %#x", v)
	}
	if err := h.WriteU16(200, 0x1234); err != nil {
		t.Fatal(err)
	}
	if v, _ := h.ReadU16(200); v != 0x1234 {
		t.Errorf("ReadU16 = %#x", v)
	}
	if err := h.WriteU64(300, 1<<40); err != nil {
		t.Fatal(err)
	}
	if v, _ := h.ReadU64(300); v != 1<<40 {
		t.Errorf("ReadU64 = %d", v)
	}
	if err := h.WriteU8(400, 7); err != nil {
		t.Fatal(err)
	}
	if v, _ := h.ReadU8(400); v != 7 {
		t.Errorf("ReadU8 = %d", v)
	}
}

func TestHeap_OutOfBounds(t *testing.T) {
	h := NewHeap(nil)

	if _, err := h.Read(PageSize-1, 2); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("Read past end: %v", err)
	}
	if err := h.Write(PageSize, []byte{1}); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("Write past end: %v", err)
	}
	if _, err := h.ReadU32(PageSize - 3); err == nil {
		t.Error("expected straddling ReadU32 to fail")
	}
	if err := h.WriteU64(PageSize-7, 1); err == nil {
		t.Error("expected straddling WriteU64 to fail")
	}
	if _, err := h.ReadU8(0xFFFFFFFF); err == nil {
		t.Error("expected ReadU8 at max offset to fail")
	}
}

func TestHeap_ReadViewDoesNotAliasPastLength(t *testing.T) {
	h := NewHeap(nil)
	b, _ := h.Read(0, 4)
	if cap(b) != 4 {
		t.Errorf("cap = %d, want 4", cap(b))
	}
}

func TestHeap_Grow(t *testing.T) {
	h := NewHeap(&Config{InitialPages: 1, MaxPages: 3})
	_ = h.WriteU32(16, 99)

	prev, ok := h.Grow(2)
	if !ok || prev != 1 {
		t.Fatalf("Grow(2) = %d, %v", prev, ok)
	}
	if h.Size() != 3*PageSize {
		t.Fatalf("Size = %d", h.Size())
	}
	if v, _ := h.ReadU32(16); v != 99 {
		t.Errorf("contents lost across growth: %d", v)
	}

	if prev, ok := h.Grow(0); !ok || prev != 3 {
		t.Errorf("Grow(0) = %d, %v", prev, ok)
	}
	if _, ok := h.Grow(1); ok {
		t.Error("expected growth past max to fail")
	}
	if h.Pages() != 3 {
		t.Errorf("failed growth changed size: %d pages", h.Pages())
	}
}
