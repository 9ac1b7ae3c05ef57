package rxloop

import (
	"errors"
)

var (
	// ErrNilLoop is the panic value (possibly wrapped) when a [Bridge] is
	// constructed without a [Loop].
	ErrNilLoop = errors.New("rxloop: nil loop")

	// ErrNilQueue is the panic value (possibly wrapped) when a [Bridge] is
	// constructed without a [Queue].
	ErrNilQueue = errors.New("rxloop: nil queue")

	// ErrInvalidOption indicates a bad [Option], e.g. an unknown [Strategy].
	ErrInvalidOption = errors.New("rxloop: invalid option")

	// ErrNotOwner indicates an owning-goroutine-only operation was called
	// from a different goroutine.
	ErrNotOwner = errors.New("rxloop: not called from the owning goroutine")

	// ErrTimerRegistration wraps a failure of [Loop.ScheduleTimer]. Pending
	// items would be stranded, so this is treated as fatal.
	ErrTimerRegistration = errors.New("rxloop: timer registration failed")
)
