// Package eventloop runs closures one at a time on a single goroutine.
//
// Event sources (bot updates, terminal input) live on their own goroutines
// and hand work to the loop with Post. Timers scheduled with AfterFunc fire
// back onto the loop, so code running inside it never needs locks.
package eventloop

import (
	"context"
	"sync"
	"time"
)

type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once

	// Touched only from the loop goroutine.
	pending  int
	draining bool
}

func New(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post queues f to run on the loop. It is safe to call from any goroutine
// and returns false if the loop has stopped.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- f:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc runs f on the loop once d has elapsed. Call it from the loop
// goroutine.
func (l *Loop) AfterFunc(d time.Duration, f func()) {
	l.pending++
	time.AfterFunc(d, func() {
		l.Post(func() {
			l.pending--
			f()
		})
	})
}

// Pending is the number of AfterFunc callbacks that have not run yet.
func (l *Loop) Pending() int { return l.pending }

// Stop ends Run after the current task. Safe from any goroutine.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// StopWhenIdle ends Run as soon as no AfterFunc callbacks are pending. Call
// it from the loop goroutine.
func (l *Loop) StopWhenIdle() {
	l.draining = true
	l.checkIdle()
}

func (l *Loop) checkIdle() {
	if l.draining && l.pending == 0 {
		l.Stop()
	}
}

// Run executes posted tasks in order until Stop is called or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.tasks:
			f()
			l.checkIdle()
		}
	}
}
