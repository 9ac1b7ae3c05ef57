package main

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// newLogger builds a JSON logger, writing to w. Callers validate the level.
func newLogger(w io.Writer, level string) *logiface.Logger[logiface.Event] {
	lvl, _ := parseLevel(level)
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(lvl),
	).Logger()
}
