// Package raw stores type-erased growable arrays inside a byte-addressed
// memory, such as a wazero linear memory or a memory.Heap.
//
// Every array occupies one block from a dynarray.Allocator. The block starts
// with a 16 byte header followed by the element slots:
//
//	offset  0  magic      0x59415244
//	offset  4  capacity   slots in the block
//	offset  8  length     live elements
//	offset 12  elemSize   bytes per element
//	offset 16  slot 0 ... slot capacity-1
//
// All header fields are little-endian uint32. Arrays are referred to by a
// resource.Handle whose rep is the address of slot 0; growth copies the
// block, frees the old one and updates the rep, so handles stay valid while
// Data changes.
//
// Usage:
//
//	mem := memory.NewHeap(nil)
//	eng := raw.NewEngine(mem, alloc.NewFreeList(mem), raw.DefaultOptions())
//	defer eng.Close()
//
//	h, _ := eng.Init(4)
//	eng.Append(h, []byte{1, 0, 0, 0})
//	eng.ForEach(h, func(elem []byte) bool {
//	    fmt.Println(binary.LittleEndian.Uint32(elem))
//	    return true
//	})
//	eng.Destroy(h)
package raw
