// Package array provides a generic growable array with an explicit lifecycle.
//
// An Array starts with capacity 2 and doubles whenever an append finds it
// full, giving amortized O(1) appends:
//
//	arr, err := array.New[int32]()
//	if err != nil {
//	    return err
//	}
//	defer arr.Destroy()
//
//	arr.Append(10)
//	arr.Append(20)
//	arr.Append(30) // capacity 2 -> 4
//
//	arr.TruncateLast() // length 2, capacity still 4
//
// # Lifecycle
//
// New initializes, Destroy releases. Destroy on a nil array is a no-op; any
// use after Destroy, including a second Destroy, returns an error of kind
// errors.KindUseAfterDestroy instead of touching freed storage.
//
// # Allocation Failure
//
// Growth allocates the new storage before releasing the old one. When the
// allocation fails (Options.MaxBytes exceeded, size overflow, or a runtime
// allocation panic) Append returns an errors.KindAllocation error and the
// array keeps its previous contents, length and capacity. With
// Options.FailFast the failure is logged at fatal level and the process exits.
//
// # Concurrency
//
// Array is not synchronized. Synced wraps an Array with one RWMutex:
//
//	s, _ := array.NewSynced[string](array.DefaultOptions())
//	go s.Append("a")
//	go s.Each(func(v string) bool { fmt.Println(v); return true })
package array
