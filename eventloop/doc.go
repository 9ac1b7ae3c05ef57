// Package eventloop provides a single-goroutine event loop for Go, offering
// one-shot timers and posted tasks, with a well-defined owning goroutine.
//
// # Architecture
//
// The goroutine that calls [Loop.Run] owns the loop, for the duration. Each
// iteration ("tick") runs, in order:
//  1. Timer callbacks (earliest deadline first, ties in scheduling order)
//  2. Posted tasks ([Loop.Submit], [Loop.Post]), FIFO, bounded by a budget
//  3. A blocking wait, until woken or the next timer is due
//
// # Platform Support
//
// On Linux the loop blocks in poll(2), on an eventfd. Elsewhere, it blocks on
// a channel and a [time.Timer].
//
// # Thread Safety
//
//   - [Loop.Submit], [Loop.Post], [Loop.Invoke], and [Loop.ScheduleTimer] are
//     safe to call from any goroutine
//   - [Loop.Invoke] runs the function immediately, if already on the loop
//     goroutine (see [Loop.IsLoopThread])
//   - [Timer.Cancel] is safe to call from any goroutine, and is idempotent
//   - The timer heap is only ever mutated on the loop goroutine
//
// # Usage
//
//	loop, err := eventloop.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, _ = loop.ScheduleTimer(100*time.Millisecond, func() {
//	    fmt.Println("Hello after 100ms")
//	    _ = loop.Close()
//	})
//
//	if err := loop.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package eventloop
