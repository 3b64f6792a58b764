package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/dynarray"
	"github.com/wippyai/dynarray/errors"
	"github.com/wippyai/dynarray/memory"
)

var _ dynarray.Allocator = (*FreeList)(nil)

func newHeapAllocator(t *testing.T, maxPages uint32) (*FreeList, *memory.Heap) {
	t.Helper()
	mem := memory.NewHeap(&memory.Config{InitialPages: 1, MaxPages: maxPages})
	return NewFreeList(mem), mem
}

func TestFreeList_NeverReturnsNull(t *testing.T) {
	a, _ := newHeapAllocator(t, 1)

	ptr, err := a.Alloc(1, 1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, ptr, uint32(ReservedBytes))
}

func TestFreeList_Alignment(t *testing.T) {
	a, _ := newHeapAllocator(t, 1)

	for _, align := range []uint32{1, 2, 4, 8, 16, 64, 256} {
		ptr, err := a.Alloc(3, align)
		require.NoError(t, err)
		require.Zero(t, ptr%align, "ptr %d not aligned to %d", ptr, align)
	}
}

func TestFreeList_InvalidAlignment(t *testing.T) {
	a, _ := newHeapAllocator(t, 1)

	_, err := a.Alloc(8, 3)
	require.Error(t, err)
	require.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestFreeList_DistinctBlocks(t *testing.T) {
	a, mem := newHeapAllocator(t, 1)

	p1, err := a.Alloc(16, 8)
	require.NoError(t, err)
	p2, err := a.Alloc(16, 8)
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)

	require.NoError(t, mem.Write(p1, []byte("aaaaaaaaaaaaaaaa")))
	require.NoError(t, mem.Write(p2, []byte("bbbbbbbbbbbbbbbb")))
	b, _ := mem.Read(p1, 16)
	require.Equal(t, "aaaaaaaaaaaaaaaa", string(b))

	st := a.Stats()
	require.Equal(t, 2, st.Blocks)
	require.Equal(t, uint64(32), st.InUse)
}

func TestFreeList_ReuseAndCoalesce(t *testing.T) {
	a, _ := newHeapAllocator(t, 1)
	total := a.Stats().Free

	p1, _ := a.Alloc(32, 8)
	p2, _ := a.Alloc(32, 8)
	p3, _ := a.Alloc(32, 8)

	a.Free(p2, 32, 8)
	again, err := a.Alloc(32, 8)
	require.NoError(t, err)
	require.Equal(t, p2, again, "first fit should reuse the hole")

	a.Free(p1, 32, 8)
	a.Free(again, 32, 8)
	a.Free(p3, 32, 8)

	st := a.Stats()
	require.Zero(t, st.Blocks)
	require.Zero(t, st.InUse)
	require.Equal(t, total, st.Free)
	require.Len(t, a.free, 1, "free spans should merge back into one")
}

func TestFreeList_GrowsMemory(t *testing.T) {
	a, mem := newHeapAllocator(t, 4)

	ptr, err := a.Alloc(2*memory.PageSize, 8)
	require.NoError(t, err)
	require.Greater(t, mem.Pages(), uint32(1))
	require.NoError(t, mem.Write(ptr+2*memory.PageSize-1, []byte{1}))
}

func TestFreeList_Exhausted(t *testing.T) {
	a, mem := newHeapAllocator(t, 1)

	_, err := a.Alloc(2*memory.PageSize, 8)
	require.Error(t, err)
	require.True(t, errors.IsKind(err, errors.KindAllocation))
	require.Equal(t, uint32(1), mem.Pages())
	require.Zero(t, a.Stats().Blocks)
}

func TestFreeList_UnknownFreeIgnored(t *testing.T) {
	a, _ := newHeapAllocator(t, 1)

	p, _ := a.Alloc(8, 8)
	a.Free(p, 8, 8)
	before := a.Stats()

	a.Free(p, 8, 8)
	a.Free(12345, 8, 8)
	require.Equal(t, before, a.Stats())
}

func TestFreeList_OverLinearMemory(t *testing.T) {
	ctx := t.Context()
	mem, err := memory.NewLinear(ctx, &memory.Config{InitialPages: 1, MaxPages: 2})
	require.NoError(t, err)
	defer mem.Close(ctx)

	a := NewFreeList(mem)
	p, err := a.Alloc(memory.PageSize, 8)
	require.NoError(t, err)
	require.Equal(t, uint32(2*memory.PageSize), mem.Size())
	require.NoError(t, mem.WriteU64(p, 7))
}
