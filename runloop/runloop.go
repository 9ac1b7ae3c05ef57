// Package runloop implements a virtual-time run loop: a queue of actions
// ordered by due time, drained cooperatively by whichever goroutine calls
// [RunLoop.Dispatch].
//
// A RunLoop does not run anything by itself. Something must watch it, see
// [RunLoop.SetNotifyEarlierWakeup], and call Dispatch once the head item is
// due. The rxloop package provides that glue, for a native event loop.
//
// Scheduling is safe from any goroutine. Dispatch is intended to be called
// from a single goroutine, the one that owns the run loop.
package runloop

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

type (
	// RunLoop is a virtual-time queue of scheduled actions.
	RunLoop struct {
		// Prevent copying
		_ [0]func()

		clock  func() time.Time
		notify func(wakeup time.Time)
		items  itemHeap
		seq    uint64
		mu     sync.Mutex
	}

	// Item is a scheduled action. Items are ordered by When, with ties broken
	// by the order in which they were scheduled.
	Item struct {
		When   time.Time
		Action func()
		seq    uint64
		state  *itemState
	}

	// Disposable cancels a scheduled action, see [RunLoop.Schedule].
	Disposable interface {
		// Dispose cancels any future runs. It is safe to call from any
		// goroutine, any number of times.
		Dispose()
		// Disposed reports whether Dispose has been called.
		Disposed() bool
	}

	itemState struct {
		disposed atomic.Bool
	}

	itemHeap []Item
)

var (
	_ Disposable = (*itemState)(nil)
	_ Disposable = (*periodic)(nil)
)

// New initializes a new RunLoop.
func New(opts ...Option) *RunLoop {
	cfg := resolveOptions(opts)
	return &RunLoop{
		clock: cfg.clock,
	}
}

// Now returns the current time, per the run loop's clock.
func (x *RunLoop) Now() time.Time {
	return x.clock()
}

// SetNotifyEarlierWakeup registers fn to be called whenever a newly scheduled
// item becomes the earliest item, i.e. the queue was empty, or the item is due
// strictly before the previous earliest item. Passing nil clears the
// registration.
//
// The callback is invoked on the scheduling goroutine, without any lock held.
func (x *RunLoop) SetNotifyEarlierWakeup(fn func(wakeup time.Time)) {
	x.mu.Lock()
	x.notify = fn
	x.mu.Unlock()
}

// Schedule enqueues action to run at (or after) the given time.
func (x *RunLoop) Schedule(at time.Time, action func()) Disposable {
	if action == nil {
		panic(`runloop: nil action`)
	}

	state := new(itemState)

	x.mu.Lock()
	earlier := len(x.items) == 0 || at.Before(x.items[0].When)
	x.seq++
	heap.Push(&x.items, Item{
		When:   at,
		Action: action,
		seq:    x.seq,
		state:  state,
	})
	var notify func(time.Time)
	if earlier {
		notify = x.notify
	}
	x.mu.Unlock()

	if notify != nil {
		notify(at)
	}

	return state
}

// ScheduleAfter enqueues action to run after delay, relative to [RunLoop.Now].
func (x *RunLoop) ScheduleAfter(delay time.Duration, action func()) Disposable {
	return x.Schedule(x.Now().Add(delay), action)
}

// ScheduleNow enqueues action to run as soon as possible, after any items
// that are already due.
func (x *RunLoop) ScheduleNow(action func()) Disposable {
	return x.Schedule(x.Now(), action)
}

// SchedulePeriodic runs action at initial, initial+period, initial+2*period,
// and so on, until the returned Disposable is disposed. The tick argument
// starts at zero. Each run is scheduled relative to initial, so slow actions
// don't accumulate drift.
func (x *RunLoop) SchedulePeriodic(initial time.Time, period time.Duration, action func(tick int64)) Disposable {
	if period <= 0 {
		panic(`runloop: non-positive period`)
	}
	if action == nil {
		panic(`runloop: nil action`)
	}

	p := &periodic{
		loop:    x,
		initial: initial,
		period:  period,
		action:  action,
	}
	p.schedule()
	return p
}

// Empty returns true if there are no scheduled items, including cancelled
// items that have yet to be dispatched.
func (x *RunLoop) Empty() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.items) == 0
}

// Len returns the number of scheduled items.
func (x *RunLoop) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.items)
}

// Peek returns the earliest item. It panics if the run loop is empty.
func (x *RunLoop) Peek() Item {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.items) == 0 {
		panic(`runloop: peek on empty run loop`)
	}
	return x.items[0]
}

// NextDue returns the due time of the earliest item, or the zero time if the
// run loop is empty.
func (x *RunLoop) NextDue() time.Time {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.items) == 0 {
		return time.Time{}
	}
	return x.items[0].When
}

// Dispatch removes the earliest item and runs it, unless it was disposed.
// The action runs without any lock held, so it may schedule further items.
// It is a no-op if the run loop is empty.
func (x *RunLoop) Dispatch() {
	x.mu.Lock()
	if len(x.items) == 0 {
		x.mu.Unlock()
		return
	}
	item := heap.Pop(&x.items).(Item)
	x.mu.Unlock()

	if item.state.Disposed() {
		return
	}
	item.Action()
}

// Disposed returns true if the item was cancelled.
func (x Item) Disposed() bool {
	return x.state != nil && x.state.Disposed()
}

func (x *itemState) Dispose() { x.disposed.Store(true) }

func (x *itemState) Disposed() bool { return x.disposed.Load() }

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].When.Equal(h[j].When) {
		return h[i].seq < h[j].seq
	}
	return h[i].When.Before(h[j].When)
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) {
	*h = append(*h, x.(Item))
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = Item{} // allow GC
	*h = old[:n-1]
	return x
}
