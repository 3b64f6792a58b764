package memory

import (
	"context"
	"testing"
)

func TestMemoryModule_Layout(t *testing.T) {
	got := memoryModule(1, 2)
	want := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
		0x05, 0x04, 0x01, 0x01, 0x01, 0x02, // memory section: min 1, max 2
		0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
		0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // "memory"
		0x02, 0x00, // kind: memory, index 0
	}
	if string(got) != string(want) {
		t.Fatalf("memoryModule(1, 2) =\n% x\nwant\n% x", got, want)
	}
}

func TestMemoryModule_MultiByteLimits(t *testing.T) {
	got := memoryModule(200, 16384)
	// 200 -> c8 01, 16384 -> 80 80 01
	want := []byte{0x05, 0x07, 0x01, 0x01, 0xc8, 0x01, 0x80, 0x80, 0x01}
	if string(got[8:8+len(want)]) != string(want) {
		t.Fatalf("memory section = % x, want % x", got[8:8+len(want)], want)
	}
}

func TestLinear_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mem, err := NewLinear(ctx, &Config{InitialPages: 1, MaxPages: 4})
	if err != nil {
		t.Fatalf("NewLinear failed: %v", err)
	}

	if mem.Size() != PageSize {
		t.Fatalf("Size = %d, want %d", mem.Size(), PageSize)
	}
	if mem.Runtime() == nil {
		t.Fatal("expected runtime")
	}

	if err := mem.WriteU32(64, 42); err != nil {
		t.Fatal(err)
	}
	if prev, ok := mem.Grow(3); !ok || prev != 1 {
		t.Fatalf("Grow(3) = %d, %v", prev, ok)
	}
	if v, _ := mem.ReadU32(64); v != 42 {
		t.Errorf("contents lost across growth: %d", v)
	}
	if _, ok := mem.Grow(1); ok {
		t.Error("expected growth past max to fail")
	}

	if err := mem.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := mem.Close(ctx); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestLinear_Independent(t *testing.T) {
	ctx := context.Background()
	a, err := NewLinear(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(ctx)
	b, err := NewLinear(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close(ctx)

	_ = a.WriteU8(0, 1)
	if v, _ := b.ReadU8(0); v != 0 {
		t.Error("memories should not share storage")
	}
}
