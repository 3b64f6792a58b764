// Package dynarray provides growable arrays with amortized O(1) append,
// explicit lifecycle control and introspection of their own metadata.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	dynarray/         Root package with Memory, Allocator and Observer contracts
//	├── array/        Generic Array[T] and its locked wrapper Synced[T]
//	├── raw/          Type-erased arrays laid out header-first inside a Memory
//	├── memory/       Heap, wazero-backed and standalone linear memories
//	├── alloc/        Free-list allocator over a growable Memory
//	├── resource/     Stable handle table used by raw arrays
//	├── metrics/      Prometheus collectors fed by lifecycle events
//	└── errors/       Structured error types
//
// # Quick Start
//
// Generic arrays:
//
//	arr, err := array.New[int32]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer arr.Destroy()
//
//	_ = arr.Append(10)
//	_ = arr.Append(20)
//	_ = arr.Append(30) // grows 2 -> 4
//
//	for i, v := range arr.All() {
//	    fmt.Println(i, v)
//	}
//
// Arrays inside a byte-addressed memory, with fixed-size byte elements:
//
//	mem := memory.NewHeap(nil)
//	eng := raw.NewEngine(mem, alloc.NewFreeList(mem), raw.DefaultOptions())
//
//	h, _ := eng.Init(4)
//	_ = eng.Append(h, []byte{10, 0, 0, 0})
//	_ = eng.ForEach(h, func(elem []byte) bool {
//	    fmt.Println(binary.LittleEndian.Uint32(elem))
//	    return true
//	})
//	_ = eng.Destroy(h)
//
// # Growth Policy
//
// New arrays start with capacity 2. When an append finds the array full the
// capacity doubles (2, 4, 8, ...). New storage is acquired before the old
// storage is released, so a failed growth leaves the array untouched.
//
// # Thread Safety
//
// Array and raw.Engine are NOT safe for concurrent use. Growth relocates
// storage, so readers must never run concurrently with an append. Use
// array.Synced or confine an array to a single goroutine.
package dynarray
