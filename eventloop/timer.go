package eventloop

import (
	"container/heap"
	"sync/atomic"
	"time"
)

const (
	timerPending uint32 = iota
	timerFired
	timerCanceled
)

// Timer is a one-shot timer registration, see [Loop.ScheduleTimer].
type Timer struct {
	loop *Loop
	when time.Time
	fn   func()
	seq  uint64
	// index within the loop's heap, -1 if not (yet, or any longer) present,
	// only accessed on the loop goroutine
	index int
	state atomic.Uint32
}

// When returns the time at which the timer is due.
func (t *Timer) When() time.Time {
	return t.when
}

// Cancel disarms the timer, returning true if this call prevented it from
// firing. It is safe to call from any goroutine, any number of times, including
// after the timer has fired, or after the loop has terminated.
//
// Cancelled timers are removed from the heap immediately when cancelled on the
// loop goroutine, and lazily otherwise.
func (t *Timer) Cancel() bool {
	if !t.state.CompareAndSwap(timerPending, timerCanceled) {
		return false
	}
	if t.loop.IsLoopThread() {
		t.loop.timers.remove(t)
	}
	return true
}

// timerHeap is a min-heap of timers, ordered by due time then sequence.
type timerHeap []*Timer

// Implement heap.Interface for timerHeap
func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil // allow GC
	t.index = -1
	*h = old[:n-1]
	return t
}

func (h *timerHeap) remove(t *Timer) {
	if t.index >= 0 && t.index < len(*h) && (*h)[t.index] == t {
		heap.Remove(h, t.index)
	}
}
