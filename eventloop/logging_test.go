package eventloop

import (
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEvent is a minimal logiface.Event implementation for testing the
// structured logging paths (logCritical, logError).
type testEvent struct {
	logiface.UnimplementedEvent
	fields map[string]any
	msg    string
	level  logiface.Level
}

func (e *testEvent) Level() logiface.Level { return e.level }

func (e *testEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = val
}

func (e *testEvent) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func newTestLogger(onWrite func(*testEvent) error) *logiface.Logger[logiface.Event] {
	return logiface.New[*testEvent](
		logiface.WithEventFactory[*testEvent](logiface.EventFactoryFunc[*testEvent](func(level logiface.Level) *testEvent {
			return &testEvent{level: level}
		})),
		logiface.WithWriter[*testEvent](logiface.WriterFunc[*testEvent](onWrite)),
		logiface.WithLevel[*testEvent](logiface.LevelTrace),
	).Logger()
}

func TestLogError_TaskPanic(t *testing.T) {
	events := make(chan *testEvent, 1)
	loop := startLoop(t, WithLogger(newTestLogger(func(e *testEvent) error {
		events <- e
		return nil
	})))

	require.NoError(t, loop.Submit(func() { panic("boom") }))

	select {
	case e := <-events:
		assert.Equal(t, logiface.LevelError, e.level)
		assert.Equal(t, "task panicked", e.msg)
		assert.Equal(t, "boom", e.fields["panic"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestLogCritical_WithPanickingLogger(t *testing.T) {
	l, err := New(WithLogger(newTestLogger(func(*testEvent) error {
		panic("logger panic")
	})))
	require.NoError(t, err)
	defer l.Close()

	// falls back to the standard library logger
	l.logCritical("test critical", assert.AnError)
	l.logError("test error", "value")
}

func TestLogError_NoLogger(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	l.logCritical("test critical", assert.AnError)
	l.logError("test error", "value")
}
