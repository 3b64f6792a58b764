// Package resource provides stable handles for values whose location moves.
//
// A Table maps small integer handles to a representation value (rep),
// usually an address inside a Memory. Growing an array relocates its
// storage; the owner updates the rep with SetRep and every holder of the
// handle keeps working:
//
//	table := resource.NewTable()
//
//	h, _ := table.New(elemSize, addr)
//	addr, ok := table.Rep(h)
//
//	table.SetRep(h, newAddr) // after relocation
//
//	_, err := table.Drop(h)  // h is now invalid
//
// # Borrows
//
// A borrow marks a handle as being read, for example during a traversal.
// Drop refuses to invalidate a borrowed handle:
//
//	if table.Borrow(h) {
//	    defer table.ReturnBorrow(h)
//	    // read storage at table.Rep(h)
//	}
//
// Handle 0 is reserved and is never returned by New. Released slots are
// reused, but each handle carries its slot's generation: once dropped, a
// handle is rejected even after its slot has been handed out again.
package resource
