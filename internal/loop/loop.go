// Package loop runs queued work on one goroutine.
//
// Every piece of UI state (grid model, menu and resize controllers) is owned
// by the goroutine inside Run. Other goroutines (Wails bindings, timers, MCP
// handlers) reach that state only by posting a function to the queue.
package loop

import (
	"context"
	"errors"
	"fmt"
)

// ErrStopped is returned by Call once Run has returned.
var ErrStopped = errors.New("event loop stopped")

// Loop is a FIFO of functions executed one at a time.
type Loop struct {
	queue chan func()
	done  chan struct{}
}

// New creates a loop with room for size pending functions.
func New(size int) *Loop {
	if size < 1 {
		size = 256
	}
	return &Loop{queue: make(chan func(), size), done: make(chan struct{})}
}

// Run executes queued functions until ctx is cancelled. It must be called once.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post queues fn without waiting for it. It reports false if the loop has
// stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for it to return. Calling it from inside
// the loop deadlocks.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	run := func() {
		defer func() {
			if rec := recover(); rec != nil {
				result <- fmt.Errorf("event loop: panic: %v", rec)
			}
		}()
		result <- fn()
	}
	if !l.Post(run) {
		return ErrStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// The function may still have completed just before shutdown.
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	}
}
