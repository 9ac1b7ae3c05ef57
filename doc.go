// Package rxloop drives a virtual-time run loop ([runloop.RunLoop], or any
// [Queue]) from a single-goroutine event loop ([eventloop.Loop], or any
// [Loop]), such that scheduled actions execute on the event loop's owning
// goroutine.
//
// A [Bridge] keeps at most one native timer registration alive, targeting
// the earliest pending item. When the queue reports a new earliest item, from
// any goroutine, the rearm decision is marshaled onto the owning goroutine
// (see [Strategy]), where it is re-validated against live state. When the
// timer fires, every overdue item is dispatched, in order, and the timer is
// rearmed for whatever remains.
//
// Typical wiring:
//
//	loop, _ := eventloop.New()
//	rl := runloop.New()
//	b := rxloop.New(rxloop.EventLoop(loop), rl)
//	defer b.Close()
//
//	rl.ScheduleAfter(10*time.Millisecond, func() {
//	    // runs on the goroutine calling loop.Run
//	})
//
//	_ = loop.Run(ctx)
//
// The [Bridge] itself takes no locks: all of its mutable state is confined
// to the owning goroutine.
package rxloop
