package runloop

import (
	"time"
)

type (
	// Option configures a RunLoop, see New.
	Option func(c *runLoopConfig)

	runLoopConfig struct {
		clock func() time.Time
	}
)

// WithClock overrides the clock used by RunLoop.Now, and therefore by
// ScheduleAfter and ScheduleNow. Defaults to time.Now. A nil clock is ignored.
func WithClock(clock func() time.Time) Option {
	return func(c *runLoopConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func resolveOptions(opts []Option) *runLoopConfig {
	cfg := runLoopConfig{
		clock: time.Now,
	}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return &cfg
}
