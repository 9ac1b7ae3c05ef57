package rxloop

import (
	"errors"
	"sync"
	"time"

	"github.com/joeycumines/go-rxloop/internal/goid"
)

var errFakeLoopClosed = errors.New(`fake loop closed`)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (x *fakeClock) Now() time.Time {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.now
}

func (x *fakeClock) Advance(d time.Duration) {
	x.mu.Lock()
	x.now = x.now.Add(d)
	x.mu.Unlock()
}

type fakeTimer struct {
	loop     *fakeLoop
	delay    time.Duration
	deadline time.Time
	fn       func()
	canceled bool
	fired    bool
}

func (x *fakeTimer) Cancel() bool {
	x.loop.mu.Lock()
	defer x.loop.mu.Unlock()
	if x.canceled || x.fired {
		return false
	}
	x.canceled = true
	x.loop.cancels++
	return true
}

// fakeLoop is a manually driven Loop. The goroutine that constructs it is
// the owner. Nothing runs unless the test calls runTasks or fire.
type fakeLoop struct {
	mu       sync.Mutex
	clock    func() time.Time
	owner    uint64
	timers   []*fakeTimer
	tasks    []func()
	posts    int
	invokes  int
	cancels  int
	offOwner int
	closed   bool
}

func newFakeLoop(clock func() time.Time) *fakeLoop {
	return &fakeLoop{clock: clock, owner: goid.Get()}
}

func (x *fakeLoop) onOwner() bool { return goid.Get() == x.owner }

func (x *fakeLoop) ScheduleTimer(delay time.Duration, fn func()) (Timer, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.onOwner() {
		x.offOwner++
	}
	if x.closed {
		return nil, errFakeLoopClosed
	}
	t := &fakeTimer{
		loop:     x,
		delay:    delay,
		deadline: x.clock().Add(delay),
		fn:       fn,
	}
	x.timers = append(x.timers, t)
	return t, nil
}

func (x *fakeLoop) Invoke(fn func()) error {
	x.mu.Lock()
	x.invokes++
	if x.closed {
		x.mu.Unlock()
		return errFakeLoopClosed
	}
	if x.onOwner() {
		x.mu.Unlock()
		fn()
		return nil
	}
	x.tasks = append(x.tasks, fn)
	x.mu.Unlock()
	return nil
}

func (x *fakeLoop) Post(fn func()) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.posts++
	if x.closed {
		return errFakeLoopClosed
	}
	x.tasks = append(x.tasks, fn)
	return nil
}

func (x *fakeLoop) close() {
	x.mu.Lock()
	x.closed = true
	x.mu.Unlock()
}

func (x *fakeLoop) pendingTasks() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.tasks)
}

// runTasks runs queued tasks, including any queued while running, and
// returns the number run. Owner only.
func (x *fakeLoop) runTasks() int {
	var n int
	for {
		x.mu.Lock()
		if len(x.tasks) == 0 {
			x.mu.Unlock()
			return n
		}
		fn := x.tasks[0]
		x.tasks = x.tasks[1:]
		x.mu.Unlock()
		fn()
		n++
	}
}

// live returns the timers that have neither fired nor been cancelled.
func (x *fakeLoop) live() []*fakeTimer {
	x.mu.Lock()
	defer x.mu.Unlock()
	var live []*fakeTimer
	for _, t := range x.timers {
		if !t.canceled && !t.fired {
			live = append(live, t)
		}
	}
	return live
}

func (x *fakeLoop) last() *fakeTimer {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.timers) == 0 {
		return nil
	}
	return x.timers[len(x.timers)-1]
}

func (x *fakeLoop) timerCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.timers)
}

// fire runs t, as the loop would, unless it was cancelled.
func (x *fakeLoop) fire(t *fakeTimer) bool {
	x.mu.Lock()
	if t.canceled || t.fired {
		x.mu.Unlock()
		return false
	}
	t.fired = true
	x.mu.Unlock()
	t.fn()
	return true
}

// fireDue fires the live timers whose deadline has passed, returning the
// number fired.
func (x *fakeLoop) fireDue() int {
	var n int
	for _, t := range x.live() {
		if !t.deadline.After(x.clock()) && x.fire(t) {
			n++
		}
	}
	return n
}
