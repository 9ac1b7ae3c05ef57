// Command rxloop demonstrates reactive pipelines, built on a virtual-time
// run loop, executed on a single-goroutine event loop.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rxloop: %v\n", err)
		os.Exit(1)
	}
}
