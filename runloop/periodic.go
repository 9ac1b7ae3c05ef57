package runloop

import (
	"sync"
	"sync/atomic"
	"time"
)

// periodic reschedules itself after each run, see RunLoop.SchedulePeriodic.
type periodic struct {
	loop    *RunLoop
	initial time.Time
	action  func(tick int64)
	current Disposable
	period  time.Duration
	// tick is only accessed by the dispatching goroutine, after the first
	// schedule (which happens-before via the run loop's mutex)
	tick     int64
	mu       sync.Mutex
	disposed atomic.Bool
}

func (x *periodic) schedule() {
	at := x.initial.Add(time.Duration(x.tick) * x.period)
	current := x.loop.Schedule(at, x.run)
	x.mu.Lock()
	x.current = current
	x.mu.Unlock()
	// may have raced with Dispose
	if x.disposed.Load() {
		current.Dispose()
	}
}

func (x *periodic) run() {
	if x.disposed.Load() {
		return
	}
	tick := x.tick
	x.tick++
	x.action(tick)
	if !x.disposed.Load() {
		x.schedule()
	}
}

func (x *periodic) Dispose() {
	x.disposed.Store(true)
	x.mu.Lock()
	current := x.current
	x.mu.Unlock()
	if current != nil {
		current.Dispose()
	}
}

func (x *periodic) Disposed() bool { return x.disposed.Load() }
