package eventloop

import (
	"container/heap"
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/joeycumines/go-rxloop/internal/goid"
	"github.com/joeycumines/logiface"
)

// Standard errors.
var (
	// ErrLoopAlreadyRunning is returned when Run() is called on a loop that is already running.
	ErrLoopAlreadyRunning = errors.New("eventloop: loop is already running")

	// ErrLoopTerminated is returned when operations are attempted on a terminated loop.
	ErrLoopTerminated = errors.New("eventloop: loop has been terminated")

	// ErrReentrantRun is returned when Run() is called from within the loop itself.
	ErrReentrantRun = errors.New("eventloop: cannot call Run() from within the loop")

	// ErrNilTask is returned when a nil function is submitted or scheduled.
	ErrNilTask = errors.New("eventloop: nil task")
)

// waker blocks the loop goroutine until woken, or a timeout elapses.
type waker interface {
	// wait blocks for up to timeout, or indefinitely if negative.
	wait(timeout time.Duration) error
	// wake may be called from any goroutine.
	wake() error
	close() error
}

// loopTestHooks provides injection points for deterministic race testing.
type loopTestHooks struct {
	PreSleep func() // Called before CAS to StateSleeping
}

// Loop is a single-goroutine event loop, providing one-shot timers and a FIFO
// of posted tasks. The goroutine that calls [Loop.Run] owns the loop: every
// timer and task runs on it.
type Loop struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	// HOOKS: Test hooks for deterministic race testing
	testHooks *loopTestHooks

	logger *logiface.Logger[logiface.Event]

	waker waker

	// Loop termination signaling
	loopDone chan struct{}

	// Posted tasks, guarded by tasksMu
	tasks *queue.Queue

	// Task batch buffer (avoid allocation)
	batchBuf []func()

	// Timers, only accessed on the loop goroutine
	timers timerHeap

	// State machine (cache-line padded internally)
	state fastState

	tasksMu sync.Mutex

	// Synchronization
	stopOnce sync.Once

	wakePending atomic.Uint32

	// Goroutine tracking
	loopGoroutineID atomic.Uint64

	timerSeq     atomic.Uint64
	id           uint64
	tickCount    uint64
	maxPollDelay time.Duration
	taskBudget   int
}

var loopIDCounter atomic.Uint64

// New creates a new event loop.
func New(opts ...LoopOption) (*Loop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	w, err := newWaker()
	if err != nil {
		return nil, err
	}

	loop := &Loop{
		id:           loopIDCounter.Add(1),
		logger:       cfg.logger,
		waker:        w,
		tasks:        queue.New(),
		batchBuf:     make([]func(), 0, cfg.taskBudget),
		timers:       make(timerHeap, 0),
		taskBudget:   cfg.taskBudget,
		maxPollDelay: cfg.maxPollDelay,
		// Initialize loopDone here to avoid data race with Shutdown
		loopDone: make(chan struct{}),
	}

	return loop, nil
}

// Run runs the event loop and blocks until fully stopped.
//
// Run blocks until the loop terminates (via Shutdown(), Close(), or ctx cancellation).
// The calling goroutine becomes the loop goroutine, for the duration.
func (l *Loop) Run(ctx context.Context) error {
	if l.IsLoopThread() {
		return ErrReentrantRun
	}

	if !l.state.TryTransition(StateAwake, StateRunning) {
		if l.state.Load() == StateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}
	// Close loopDone when run exits to signal completion to Shutdown waiters
	defer close(l.loopDone)

	return l.run(ctx)
}

// Shutdown gracefully shuts down the event loop.
//
// Tasks posted before termination completes are still run. Timers that are not
// yet due are discarded. Shutdown blocks until termination completes or ctx
// expires.
func (l *Loop) Shutdown(ctx context.Context) error {
	if !l.requestTermination() {
		return ErrLoopTerminated
	}
	if l.IsLoopThread() {
		// can't wait on ourselves, the loop will exit after this tick
		return nil
	}

	// Wait for termination via channel, NOT polling
	select {
	case <-l.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close immediately requests termination, without waiting for the loop to
// exit. See also Shutdown.
func (l *Loop) Close() error {
	if !l.requestTermination() {
		return ErrLoopTerminated
	}
	return nil
}

// requestTermination returns false if termination was already requested.
func (l *Loop) requestTermination() bool {
	var requested bool
	l.stopOnce.Do(func() {
		requested = true
		for {
			currentState := l.state.Load()
			if currentState == StateTerminated || currentState == StateTerminating {
				requested = false
				return
			}
			if l.state.TryTransition(currentState, StateTerminating) {
				if currentState == StateAwake {
					// never ran
					l.finalize()
					return
				}
				if currentState == StateSleeping {
					_ = l.waker.wake()
				}
				return
			}
		}
	})
	return requested
}

// run is the main loop goroutine.
func (l *Loop) run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.loopGoroutineID.Store(goid.Get())
	defer l.loopGoroutineID.Store(0)

	// Start context watcher goroutine to wake loop on cancellation
	ctxDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = l.waker.wake()
		case <-ctxDone:
		}
	}()
	defer close(ctxDone)

	for {
		// Check context for external cancellation
		select {
		case <-ctx.Done():
			l.requestTermination()
			l.shutdown()
			return ctx.Err()
		default:
		}

		// Check termination
		if l.state.Load() == StateTerminating {
			l.shutdown()
			return nil
		}

		if err := l.tick(); err != nil {
			l.logCritical("wait failed, terminating loop", err)
			l.requestTermination()
		}
	}
}

// shutdown drains posted tasks then marks the loop terminated. Tasks posted
// concurrently are either run here, or rejected with ErrLoopTerminated.
func (l *Loop) shutdown() {
	for {
		if l.processTasks(-1) > 0 {
			continue
		}
		l.tasksMu.Lock()
		if l.tasks.Length() == 0 {
			l.state.Store(StateTerminated)
			l.tasksMu.Unlock()
			break
		}
		l.tasksMu.Unlock()
	}
	l.timers = nil
	_ = l.waker.close()
}

// finalize terminates a loop that never ran.
func (l *Loop) finalize() {
	l.tasksMu.Lock()
	l.state.Store(StateTerminated)
	l.tasksMu.Unlock()
	_ = l.waker.close()
	close(l.loopDone)
}

// tick is a single iteration of the event loop.
func (l *Loop) tick() error {
	l.tickCount++

	// Execute expired timers
	l.runTimers()

	// Process posted tasks with budget
	l.processTasks(l.taskBudget)

	return l.wait()
}

// processTasks runs up to budget posted tasks (no limit if negative),
// returning the number run.
func (l *Loop) processTasks(budget int) int {
	l.tasksMu.Lock()
	n := l.tasks.Length()
	if budget >= 0 && n > budget {
		n = budget
	}
	batch := l.batchBuf[:0]
	for i := 0; i < n; i++ {
		batch = append(batch, l.tasks.Remove().(func()))
	}
	l.tasksMu.Unlock()

	for i, fn := range batch {
		l.safeExecute(fn)
		batch[i] = nil // Clear for GC
	}
	l.batchBuf = batch[:0]
	return n
}

// wait blocks until woken, or the next timer is due.
func (l *Loop) wait() error {
	// HOOKS: Call test hook before state transition
	if l.testHooks != nil && l.testHooks.PreSleep != nil {
		l.testHooks.PreSleep()
	}

	if !l.state.TryTransition(StateRunning, StateSleeping) {
		return nil
	}

	// Re-check after publishing StateSleeping, any Submit that raced will
	// either be visible here, or will see StateSleeping and wake us.
	l.tasksMu.Lock()
	pending := l.tasks.Length()
	l.tasksMu.Unlock()

	var err error
	if pending == 0 {
		err = l.waker.wait(l.calculateTimeout())
	}

	l.state.TryTransition(StateSleeping, StateRunning)
	l.wakePending.Store(0)
	return err
}

// calculateTimeout determines how long to block in wait.
func (l *Loop) calculateTimeout() time.Duration {
	maxDelay := l.maxPollDelay

	// Cap by next timer
	if len(l.timers) > 0 {
		delay := time.Until(l.timers[0].when)
		if delay < 0 {
			delay = 0
		}
		if delay < maxDelay {
			maxDelay = delay
		}
	}

	return maxDelay
}

// runTimers executes all expired timers, in due order.
func (l *Loop) runTimers() {
	now := time.Now()
	for len(l.timers) > 0 {
		if l.timers[0].when.After(now) {
			break
		}
		t := heap.Pop(&l.timers).(*Timer)
		if t.state.CompareAndSwap(timerPending, timerFired) {
			l.safeExecute(t.fn)
		}
	}
}

// ScheduleTimer schedules fn to run once, on the loop goroutine, after the
// specified delay. Negative delays are treated as zero. It is safe to call from
// any goroutine; the returned Timer may be used to cancel.
func (l *Loop) ScheduleTimer(delay time.Duration, fn func()) (*Timer, error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	if delay < 0 {
		delay = 0
	}

	t := &Timer{
		loop:  l,
		when:  time.Now().Add(delay),
		fn:    fn,
		seq:   l.timerSeq.Add(1),
		index: -1,
	}

	if l.IsLoopThread() {
		if l.state.Load() == StateTerminated {
			return nil, ErrLoopTerminated
		}
		heap.Push(&l.timers, t)
		return t, nil
	}

	if err := l.Submit(func() { l.pushTimer(t) }); err != nil {
		return nil, err
	}
	return t, nil
}

func (l *Loop) pushTimer(t *Timer) {
	if t.state.Load() != timerPending {
		// cancelled before it reached the loop
		return
	}
	heap.Push(&l.timers, t)
}

// Submit posts a task to run on the loop goroutine, in FIFO order.
//
// State Policy during shutdown:
//   - StateTerminated: returns ErrLoopTerminated
//   - StateTerminating: ALLOWS submission (loop needs to drain in-flight work)
//   - StateAwake: queued until Run
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}

	l.tasksMu.Lock()
	if l.state.Load() == StateTerminated {
		l.tasksMu.Unlock()
		return ErrLoopTerminated
	}
	l.tasks.Add(fn)
	l.tasksMu.Unlock()

	// Wake if sleeping
	if l.state.Load() == StateSleeping && l.wakePending.CompareAndSwap(0, 1) {
		if err := l.waker.wake(); err != nil {
			// Expected during shutdown, the task is already queued
			l.wakePending.Store(0)
		}
	}

	return nil
}

// Post is an alias of Submit.
func (l *Loop) Post(fn func()) error {
	return l.Submit(fn)
}

// Invoke runs fn immediately if called on the loop goroutine, otherwise it is
// submitted, see Submit.
func (l *Loop) Invoke(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}
	if l.IsLoopThread() {
		l.safeExecute(fn)
		return nil
	}
	return l.Submit(fn)
}

// State returns the current loop state.
func (l *Loop) State() LoopState {
	return l.state.Load()
}

// IsLoopThread returns true if called from the goroutine running the loop.
func (l *Loop) IsLoopThread() bool {
	loopID := l.loopGoroutineID.Load()
	if loopID == 0 {
		return false
	}
	return goid.Get() == loopID
}

// Done returns a channel that is closed once the loop has terminated.
func (l *Loop) Done() <-chan struct{} {
	return l.loopDone
}

// safeExecute executes a task with panic recovery.
func (l *Loop) safeExecute(fn func()) {
	if fn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.logError("task panicked", r)
		}
	}()

	fn()
}
