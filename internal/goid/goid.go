// Package goid identifies the calling goroutine.
//
// The id is parsed from the header line of [runtime.Stack], which has the
// stable form "goroutine N [status]:". It is only intended for ownership
// checks (is this the goroutine that owns the event loop?), never for
// goroutine-local storage.
package goid

import (
	"runtime"
)

// Get returns the id of the calling goroutine. Ids are always non-zero, so
// zero is safe to use as an "unset" sentinel.
func Get() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
