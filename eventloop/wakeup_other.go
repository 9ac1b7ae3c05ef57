//go:build !linux

package eventloop

import (
	"time"
)

// chanWaker is the portable fallback, blocking on a channel and a timer.
type chanWaker struct {
	ch chan struct{}
}

func newWaker() (waker, error) {
	return &chanWaker{ch: make(chan struct{}, 1)}, nil
}

func (w *chanWaker) wait(timeout time.Duration) error {
	if timeout < 0 {
		<-w.ch
		return nil
	}
	if timeout == 0 {
		select {
		case <-w.ch:
		default:
		}
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-w.ch:
	case <-t.C:
	}
	return nil
}

func (w *chanWaker) wake() error {
	select {
	case w.ch <- struct{}{}:
	default:
	}
	return nil
}

func (w *chanWaker) close() error { return nil }
