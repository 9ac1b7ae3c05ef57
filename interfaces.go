package rxloop

import (
	"time"

	"github.com/joeycumines/go-rxloop/eventloop"
)

type (
	// Queue is the virtual-time run loop, as observed by the [Bridge].
	// [runloop.RunLoop] implements this interface.
	Queue interface {
		// Empty reports whether there are no pending items.
		Empty() bool

		// NextDue returns the due time of the earliest pending item. The
		// result is unspecified if the queue is empty.
		NextDue() time.Time

		// Dispatch removes the earliest pending item and runs it (unless it
		// was cancelled).
		Dispatch()

		// SetNotifyEarlierWakeup registers (or, with nil, unregisters) the
		// callback invoked whenever a newly scheduled item becomes the
		// earliest. It may be invoked from any goroutine.
		SetNotifyEarlierWakeup(fn func(wakeup time.Time))
	}

	// Timer is a handle to a one-shot timer registration.
	Timer interface {
		// Cancel prevents the timer from firing, returning false if it has
		// already fired, or been cancelled.
		Cancel() bool
	}

	// Loop is the native, single-goroutine event loop, as observed by the
	// [Bridge]. See [EventLoop].
	Loop interface {
		// ScheduleTimer registers fn to run once, on the owning goroutine,
		// after delay.
		ScheduleTimer(delay time.Duration, fn func()) (Timer, error)

		// Invoke runs fn on the owning goroutine, synchronously if the caller
		// is already on it, otherwise by enqueueing it.
		Invoke(fn func()) error

		// Post enqueues fn, to run once, on the owning goroutine. It never
		// runs fn synchronously.
		Post(fn func()) error
	}
)

type eventLoop struct {
	*eventloop.Loop
}

var _ Loop = eventLoop{}

// EventLoop adapts an [eventloop.Loop] to the [Loop] interface.
func EventLoop(loop *eventloop.Loop) Loop {
	if loop == nil {
		panic(ErrNilLoop)
	}
	return eventLoop{loop}
}

func (x eventLoop) ScheduleTimer(delay time.Duration, fn func()) (Timer, error) {
	t, err := x.Loop.ScheduleTimer(delay, fn)
	if err != nil {
		return nil, err
	}
	return t, nil
}
