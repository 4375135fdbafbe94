package engine

import "context"

// execute runs a backend call in its own goroutine and returns as soon
// as the call completes or the context is done. Abandoning the wait does
// not cancel the in-flight network call; it only stops the caller from
// observing its result. No retries happen here.
func execute[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	done := make(chan outcome, 1)
	go func() {
		v, err := call()
		done <- outcome{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case out := <-done:
		return out.value, out.err
	}
}
