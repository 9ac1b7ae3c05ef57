package main

import (
	"fmt"
	"io"
	"sync"
)

// console serializes line output from multiple goroutines.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (x *console) out(format string, args ...any) {
	x.mu.Lock()
	defer x.mu.Unlock()
	_, _ = fmt.Fprintf(x.w, format+"\n", args...)
}
