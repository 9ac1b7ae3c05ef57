package rxloop

import (
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

// Bridge schedules a [Queue]'s pending items onto a [Loop], using a single
// native timer registration. See the package documentation.
//
// Other than construction, all methods must be called on the owning
// goroutine, i.e. the goroutine that runs the [Loop]. Notifications from the
// queue may arrive on any goroutine.
type Bridge struct {
	loop      Loop
	queue     Queue
	marshaler Marshaler
	clock     func() time.Time
	logger    *logiface.Logger[logiface.Event]
	// current is the live timer registration, if any
	current *timerRegistration
	closed  bool
}

type timerRegistration struct {
	target time.Time
	timer  Timer
}

// New constructs a [Bridge], registering for the queue's earlier-wakeup
// notifications. It must be called on the owning goroutine.
//
// If the queue already has pending items, a single rearm decision is
// marshaled for its current head.
//
// New panics if loop or queue are nil, or if an option is invalid.
func New(loop Loop, queue Queue, opts ...Option) *Bridge {
	if loop == nil {
		panic(ErrNilLoop)
	}
	if queue == nil {
		panic(ErrNilQueue)
	}

	cfg, err := resolveOptions(opts)
	if err != nil {
		panic(err)
	}

	b := &Bridge{
		loop:      loop,
		queue:     queue,
		marshaler: cfg.marshaler,
		clock:     cfg.clock,
		logger:    cfg.logger,
	}

	if b.marshaler == nil {
		b.marshaler, err = newMarshaler(cfg.strategy, loop)
		if err != nil {
			panic(err)
		}
	}

	if b.clock == nil {
		if v, ok := queue.(interface{ Now() time.Time }); ok {
			b.clock = v.Now
		} else {
			b.clock = time.Now
		}
	}

	queue.SetNotifyEarlierWakeup(b.onEarlierWakeup)

	if !queue.Empty() {
		b.onEarlierWakeup(queue.NextDue())
	}

	return b
}

// Armed returns the target of the live timer registration, if any.
// Owning goroutine only.
func (x *Bridge) Armed() (target time.Time, ok bool) {
	if x.current != nil {
		target, ok = x.current.target, true
	}
	return
}

// Close unregisters from the queue, and cancels the live timer registration,
// if any. Any rearm decisions still in flight become no-ops. Close is
// idempotent, and always returns nil. Owning goroutine only.
//
// Close panics with [ErrNotOwner] if the marshaler implements [OwnerChecker]
// and the caller is not the owner (e.g. [StrategySelfCheck]).
func (x *Bridge) Close() error {
	if v, ok := x.marshaler.(OwnerChecker); ok && !v.IsOwner() {
		panic(ErrNotOwner)
	}
	if x.closed {
		return nil
	}
	x.closed = true
	x.queue.SetNotifyEarlierWakeup(nil)
	x.disarm()
	x.logger.Debug().Log(`rxloop: bridge closed`)
	return nil
}

// onEarlierWakeup is the queue's notification callback, which may be called
// from any goroutine.
func (x *Bridge) onEarlierWakeup(wakeup time.Time) {
	if err := x.marshaler.Marshal(func() { x.rearmIfEarlier(wakeup) }); err != nil {
		x.logger.Warning().
			Err(err).
			Time(`wakeup`, wakeup).
			Log(`rxloop: failed to marshal rearm decision`)
	}
}

// rearmIfEarlier runs on the owning goroutine, and re-validates the
// notification against the live queue. The notified item may have already
// been dispatched, or superseded by an even earlier item, so the target is
// always the current head.
func (x *Bridge) rearmIfEarlier(wakeup time.Time) {
	if x.closed || x.queue.Empty() {
		return
	}
	if head := x.queue.NextDue(); !head.Equal(wakeup) {
		x.logger.Debug().
			Time(`wakeup`, wakeup).
			Time(`head`, head).
			Log(`rxloop: stale wakeup, using head`)
		wakeup = head
	}
	if x.current == nil ||
		wakeup.Before(x.current.target) ||
		!x.clock().Before(x.current.target) {
		x.rearm(wakeup)
	}
}

// rearm replaces any live registration with one targeting wakeup.
func (x *Bridge) rearm(wakeup time.Time) {
	x.disarm()

	delay := wakeup.Sub(x.clock())
	if delay < 0 {
		delay = 0
	}

	reg := &timerRegistration{target: wakeup}
	timer, err := x.loop.ScheduleTimer(delay, func() { x.onTimerFire(reg) })
	if err != nil {
		panic(fmt.Errorf("%w: %w", ErrTimerRegistration, err))
	}
	reg.timer = timer
	x.current = reg

	x.logger.Debug().
		Time(`target`, wakeup).
		Dur(`delay`, delay).
		Log(`rxloop: timer armed`)
}

func (x *Bridge) disarm() {
	if x.current == nil {
		return
	}
	reg := x.current
	x.current = nil
	reg.timer.Cancel()
	x.logger.Debug().
		Time(`target`, reg.target).
		Log(`rxloop: timer disarmed`)
}

// onTimerFire dispatches every item due as of the fire time, in order, then
// rearms for the new head.
func (x *Bridge) onTimerFire(reg *timerRegistration) {
	if x.closed || x.current != reg {
		// superseded, but the loop ran it anyway
		return
	}

	// the native registration is spent
	x.current = nil

	// rearm even if an item panics, so the rest aren't stranded
	defer x.rearmForHead()

	now := x.clock()
	var dispatched int
	for !x.queue.Empty() && !x.queue.NextDue().After(now) {
		x.queue.Dispatch()
		dispatched++
	}

	x.logger.Debug().
		Int(`dispatched`, dispatched).
		Log(`rxloop: timer fired`)
}

func (x *Bridge) rearmForHead() {
	if x.closed || x.queue.Empty() {
		return
	}
	head := x.queue.NextDue()
	if x.current != nil && x.current.target.Equal(head) {
		return
	}
	x.rearm(head)
}
