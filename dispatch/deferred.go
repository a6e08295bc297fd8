package dispatch

import (
	"context"
	"fmt"
)

// Deferred is an endpoint result that becomes available later. The
// dispatcher awaits it with the request context before writing the response.
type Deferred interface {
	Await(ctx context.Context) (any, error)
}

// Future is a Deferred completed exactly once.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

// Go runs fn on its own goroutine and returns its eventual result. A panic
// in fn completes the future with a *PanicError. fn may outlive the request
// when its context ends first; response writes made after that are dropped.
func Go(fn func() (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.value, f.err = nil, newPanicError(r)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Resolved returns an already completed future.
func Resolved(value any, err error) *Future {
	f := &Future{done: make(chan struct{}), value: value, err: err}
	close(f.done)
	return f
}

// Await blocks until the future completes or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting deferred result: %w", ctx.Err())
	}
}
