package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/joeycumines/go-rxloop"
	"github.com/joeycumines/go-rxloop/eventloop"
	"github.com/joeycumines/go-rxloop/runloop"
)

// pipeline wires a run loop to an event loop, for the duration of a demo.
// It must be created on the goroutine that calls run.
type pipeline struct {
	out    *console
	loop   *eventloop.Loop
	queue  *runloop.RunLoop
	bridge *rxloop.Bridge
}

func newPipeline(stdout, stderr io.Writer, cfg config) (*pipeline, error) {
	logger := newLogger(stderr, cfg.LogLevel)
	loop, err := eventloop.New(eventloop.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create event loop: %w", err)
	}
	queue := runloop.New()
	bridge := rxloop.New(
		rxloop.EventLoop(loop),
		queue,
		rxloop.WithStrategy(cfg.strategy()),
		rxloop.WithLogger(logger),
	)
	return &pipeline{
		out:    &console{w: stdout},
		loop:   loop,
		queue:  queue,
		bridge: bridge,
	}, nil
}

// complete must be called on the event loop.
func (x *pipeline) complete() {
	x.out.out("on_complete\nquit event loop")
	_ = x.bridge.Close()
	_ = x.loop.Close()
}

func (x *pipeline) run(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	x.out.out("run event loop")
	defer x.bridge.Close()
	if err := x.loop.Run(ctx); err != nil {
		return fmt.Errorf("event loop: %w", err)
	}
	return nil
}

// runInterval observes ticks 1..count, of a periodic source on the run loop,
// filtering odd values, then doubling.
func runInterval(stdout, stderr io.Writer, cfg config) error {
	p, err := newPipeline(stdout, stderr, cfg)
	if err != nil {
		return err
	}
	p.out.out("main")

	count := int64(cfg.Count)
	var source runloop.Disposable
	source = p.queue.SchedulePeriodic(p.queue.Now().Add(cfg.Period), cfg.Period, func(tick int64) {
		n := tick + 1
		p.out.out("filter: %d %% 2 = %d", n, n%2)
		if n%2 == 0 {
			p.out.out("map: %d -> %d", n, n*2)
			p.out.out("on_next: %d", n*2)
		}
		if n == count {
			source.Dispose()
			p.complete()
		}
	})

	return p.run(runTimeout(cfg, cfg.Period))
}

// runMerge merges two sources, each ticking on its own goroutine, taking
// count values, which are observed on the event loop.
func runMerge(stdout, stderr io.Writer, cfg config) error {
	p, err := newPipeline(stdout, stderr, cfg)
	if err != nil {
		return err
	}
	p.out.out("main")

	var (
		taken int
		done  = make(chan struct{})
		wg    sync.WaitGroup
	)

	observe := func(v int64) {
		if taken >= cfg.Count {
			return
		}
		taken++
		p.out.out("on_next: %d", v)
		if taken == cfg.Count {
			close(done)
			p.complete()
		}
	}

	source := func(name string, period time.Duration, mapper func(n int64) int64) {
		defer wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for n := int64(1); ; n++ {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			v := mapper(n)
			p.out.out("%s-map: %d -> %d", name, n, v)
			p.queue.ScheduleNow(func() { observe(v) })
		}
	}

	wg.Add(2)
	go source("1", cfg.Period1, func(n int64) int64 { return n * 2 })
	go source("2", cfg.Period2, func(n int64) int64 { return -n })

	period := cfg.Period1
	if cfg.Period2 > period {
		period = cfg.Period2
	}
	err = p.run(runTimeout(cfg, period))
	select {
	case <-done:
	default:
		// timed out
		close(done)
	}
	wg.Wait()
	return err
}
