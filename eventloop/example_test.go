package eventloop_test

import (
	"context"
	"fmt"
	"time"

	"github.com/joeycumines/go-rxloop/eventloop"
)

// Example_timers demonstrates timers firing in due order, on the loop
// goroutine, followed by a shutdown from within the loop.
func Example_timers() {
	loop, err := eventloop.New()
	if err != nil {
		fmt.Printf("Failed to create loop: %v\n", err)
		return
	}

	_, _ = loop.ScheduleTimer(20*time.Millisecond, func() {
		fmt.Println("Timer B")
		_ = loop.Close()
	})
	_, _ = loop.ScheduleTimer(10*time.Millisecond, func() {
		fmt.Println("Timer A")
	})
	cancelled, _ := loop.ScheduleTimer(15*time.Millisecond, func() {
		fmt.Println("never printed")
	})
	cancelled.Cancel()

	if err := loop.Run(context.Background()); err != nil {
		fmt.Printf("Run failed: %v\n", err)
	}

	fmt.Println("Done")

	// Output:
	// Timer A
	// Timer B
	// Done
}
