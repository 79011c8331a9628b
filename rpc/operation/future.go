package operation

import (
	"context"
	"sync"
)

// Future is the completion handle of an operation. It is resolved exactly
// once, either with a result or with an error. Later resolutions are ignored.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	result T
	err    error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolve sets the outcome, it reports false if the future was already resolved
func (f *Future[T]) resolve(result T, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.result = result
		f.err = err
		resolved = true
		close(f.done)
	})
	return resolved
}

// Done returns a channel that is closed once the future is resolved
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the future is resolved and returns its outcome
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.result, f.err
}

// Await is like Get but gives up when ctx is done. Giving up does not cancel
// the operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsDone reports whether the future is resolved without blocking
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
