package futurecache

import (
	"context"
	"fmt"
)

// Future is a handle to a value that becomes available asynchronously.
// It settles exactly once and may be shared by any number of waiters.
type Future[V any] struct {
	done chan struct{}

	value V
	err   error
}

func newFuture[V any]() *Future[V] {
	return &Future[V]{
		done: make(chan struct{}),
	}
}

// Go runs fn on its own goroutine and returns a future for its result.
//
// fn receives a context that carries the values of ctx but not its
// cancellation, so that an abandoned waiter can not cancel work shared
// with other waiters.
func Go[V any](ctx context.Context, fn func(context.Context) (V, error)) *Future[V] {
	f := newFuture[V]()
	detached := context.WithoutCancel(ctx)

	go func() {
		var (
			value V
			err   error
		)
		defer func() {
			if msg := recover(); msg != nil {
				err = fmt.Errorf("%w: %v", ErrPanicked, msg)
			}
			f.settle(value, err)
		}()
		value, err = fn(detached)
	}()

	return f
}

// Resolved returns a future already settled with v.
func Resolved[V any](v V) *Future[V] {
	f := newFuture[V]()
	f.settle(v, nil)
	return f
}

// Failed returns a future already settled with err.
func Failed[V any](err error) *Future[V] {
	f := newFuture[V]()
	var zero V
	f.settle(zero, err)
	return f
}

func (f *Future[V]) settle(value V, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel that is closed once the future settles.
func (f *Future[V]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done. Giving up on the
// wait leaves the underlying operation untouched.
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Peek returns the result of a settled future without blocking, or
// ErrPending while it is still running.
func (f *Future[V]) Peek() (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
		var zero V
		return zero, ErrPending
	}
}
