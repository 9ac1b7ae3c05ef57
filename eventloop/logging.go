package eventloop

import (
	"fmt"
	"log"
)

// logError reports a recovered task panic. Falls back to the standard
// library logger if no logger is configured, or if the logger panics.
func (l *Loop) logError(msg string, r any) {
	b := l.logger.Err()
	if !b.Enabled() {
		log.Printf("ERROR: eventloop: %s: %v", msg, r)
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.Printf("ERROR: eventloop: %s: %v (logger panicked: %v)", msg, r, p)
		}
	}()
	b.Uint64("loop_id", l.id).
		Str("panic", fmt.Sprint(r)).
		Log(msg)
}

// logCritical reports a failure that terminates the loop.
func (l *Loop) logCritical(msg string, err error) {
	b := l.logger.Crit()
	if !b.Enabled() {
		log.Printf("CRITICAL: eventloop: %s: %v", msg, err)
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.Printf("CRITICAL: eventloop: %s: %v (logger panicked: %v)", msg, err, p)
		}
	}()
	b.Uint64("loop_id", l.id).
		Err(err).
		Log(msg)
}
