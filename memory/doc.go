// Package memory provides byte-addressed memories that arrays can live in.
//
// Every memory implements dynarray.Memory and grows in 64 KiB pages:
//
//	Heap    - a Go byte slice, useful for tests and host-only arrays
//	Wrapper - adapts a wazero api.Memory exported by a running module
//	Linear  - a standalone wazero runtime owning one exported linear memory
//
// Slices returned by Read are views into the memory. They stay valid until
// the memory grows; copy them if they must outlive a growth.
//
//	mem, err := memory.NewLinear(ctx, &memory.Config{InitialPages: 1, MaxPages: 16})
//	if err != nil {
//	    return err
//	}
//	defer mem.Close(ctx)
//
//	_ = mem.WriteU32(0, 42)
package memory
