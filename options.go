package rxloop

import (
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

type bridgeOptions struct {
	strategy  Strategy
	marshaler Marshaler
	clock     func() time.Time
	logger    *logiface.Logger[logiface.Event]
}

// Option configures a [Bridge].
type Option interface {
	applyBridge(*bridgeOptions) error
}

type optionImpl struct {
	applyBridgeFunc func(*bridgeOptions) error
}

func (x *optionImpl) applyBridge(opts *bridgeOptions) error {
	return x.applyBridgeFunc(opts)
}

// WithStrategy selects one of the built-in marshaling strategies. Defaults
// to [StrategyInvoke].
func WithStrategy(strategy Strategy) Option {
	return &optionImpl{func(opts *bridgeOptions) error {
		switch strategy {
		case StrategyInvoke, StrategySelfCheck:
		default:
			return fmt.Errorf("%w: unknown strategy %d", ErrInvalidOption, int(strategy))
		}
		opts.strategy = strategy
		return nil
	}}
}

// WithMarshaler provides a custom [Marshaler], taking precedence over
// [WithStrategy].
func WithMarshaler(marshaler Marshaler) Option {
	return &optionImpl{func(opts *bridgeOptions) error {
		if marshaler == nil {
			return fmt.Errorf("%w: nil marshaler", ErrInvalidOption)
		}
		opts.marshaler = marshaler
		return nil
	}}
}

// WithClock overrides the source of "now", used to compute timer delays and
// to determine which items are due. It must agree with the [Queue]'s clock.
// Defaults to the queue's Now method, if it has one, otherwise [time.Now].
func WithClock(clock func() time.Time) Option {
	return &optionImpl{func(opts *bridgeOptions) error {
		if clock == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidOption)
		}
		opts.clock = clock
		return nil
	}}
}

// WithLogger enables debug and warning level logging. A nil logger (the
// default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *bridgeOptions) error {
		opts.logger = logger
		return nil
	}}
}

func resolveOptions(opts []Option) (*bridgeOptions, error) {
	cfg := &bridgeOptions{
		strategy: StrategyInvoke,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyBridge(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
