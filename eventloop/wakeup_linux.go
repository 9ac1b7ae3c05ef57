//go:build linux

package eventloop

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// eventfdWaker blocks in poll(2) on an eventfd, which is written to wake the
// loop.
type eventfdWaker struct {
	fds    [1]unix.PollFd
	buf    [8]byte
	mu     sync.RWMutex
	fd     int
	closed bool
}

func newWaker() (waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	w := &eventfdWaker{fd: fd}
	w.fds[0] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	return w, nil
}

func (w *eventfdWaker) wait(timeout time.Duration) error {
	w.fds[0].Revents = 0
	_, err := unix.Poll(w.fds[:], pollTimeoutMillis(timeout))
	if err != nil && !errors.Is(err, unix.EINTR) {
		return err
	}
	// drain, the counter resets on read
	for {
		if _, err := unix.Read(w.fd, w.buf[:]); err != nil {
			break
		}
	}
	return nil
}

func (w *eventfdWaker) wake() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrLoopTerminated
	}
	var one [8]byte
	binary.NativeEndian.PutUint64(one[:], 1)
	_, err := unix.Write(w.fd, one[:])
	if errors.Is(err, unix.EAGAIN) {
		// counter saturated, the loop is already going to wake
		return nil
	}
	return err
}

func (w *eventfdWaker) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return unix.Close(w.fd)
}

// pollTimeoutMillis converts a timeout to poll(2) milliseconds, rounding up,
// so the loop never wakes before a timer is due. Negative means indefinitely.
func pollTimeoutMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	return int((timeout + time.Millisecond - 1) / time.Millisecond)
}
