//go:build !linux

package hostvm

import "github.com/petermattis/goid"

// threadID identifies the calling goroutine. Callers pin goroutines to OS
// threads for the lifetime of an attachment, so the goroutine id stands in
// for the thread.
func threadID() int64 {
	return goid.Get()
}
