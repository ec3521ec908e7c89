// Package resource provides reference slot tables for the in-process host runtime.
//
// Every reference the host hands out occupies a slot. The slot records the
// kind of reference (its type ID), the thread that owns it, and how many
// times it is currently borrowed. Handle 0 is reserved and always invalid.
//
// # Slot Lifecycle
//
//	Insert       - allocate a slot, returns its handle
//	Borrow       - pin the slot; Remove fails while any borrow is outstanding
//	ReturnBorrow - unpin
//	Remove       - free the slot; the handle becomes stale
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	h := table.Insert(kindLocal, threadID, value)
//	value, ok := table.GetTyped(h, kindLocal)
//	_, err := table.Remove(h) // ErrInvalidHandle, ErrOutstandingBorrow
//
// Freed slots are reused, so a stale handle may later name a different
// value. Owners are checked by the caller, not by the table.
//
// # Observers
//
// Register observers to track slot lifecycle events:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s handle=%d owner=%d", e.Type, e.Handle, e.Owner)
//	}))
//
// Observers run synchronously on the goroutine that changed the table and
// must not call back into it.
package resource
