package rxloop

import (
	"fmt"

	"github.com/joeycumines/go-rxloop/internal/goid"
)

// Strategy selects how rearm decisions, raised on arbitrary goroutines, are
// delivered to the owning goroutine.
type Strategy int

const (
	// StrategyInvoke always delegates to [Loop.Invoke], which runs the
	// decision inline when already on the owning goroutine. This is the
	// default.
	StrategyInvoke Strategy = iota

	// StrategySelfCheck records the constructing goroutine as the owner. The
	// decision runs inline when notified on the owner, otherwise it is
	// handed to [Loop.Post].
	StrategySelfCheck
)

func (s Strategy) String() string {
	switch s {
	case StrategyInvoke:
		return "invoke"
	case StrategySelfCheck:
		return "self-check"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy is the inverse of [Strategy.String].
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "invoke":
		return StrategyInvoke, nil
	case "self-check", "selfcheck":
		return StrategySelfCheck, nil
	default:
		return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidOption, s)
	}
}

// Marshaler delivers a function to the owning goroutine. Implementations
// must run fn exactly once, on the owning goroutine, or return an error.
type Marshaler interface {
	Marshal(fn func()) error
}

// OwnerChecker may be implemented by a [Marshaler] that knows the identity
// of the owning goroutine. [Bridge.Close] uses it to assert it is called on
// the owner.
type OwnerChecker interface {
	IsOwner() bool
}

type invokeMarshaler struct {
	loop Loop
}

func (x invokeMarshaler) Marshal(fn func()) error {
	return x.loop.Invoke(fn)
}

type selfCheckMarshaler struct {
	loop  Loop
	owner uint64
}

func newSelfCheckMarshaler(loop Loop) *selfCheckMarshaler {
	return &selfCheckMarshaler{loop: loop, owner: goid.Get()}
}

func (x *selfCheckMarshaler) IsOwner() bool {
	return goid.Get() == x.owner
}

func (x *selfCheckMarshaler) Marshal(fn func()) error {
	if x.IsOwner() {
		fn()
		return nil
	}
	return x.loop.Post(fn)
}

func newMarshaler(strategy Strategy, loop Loop) (Marshaler, error) {
	switch strategy {
	case StrategyInvoke:
		return invokeMarshaler{loop: loop}, nil
	case StrategySelfCheck:
		return newSelfCheckMarshaler(loop), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrInvalidOption, int(strategy))
	}
}
