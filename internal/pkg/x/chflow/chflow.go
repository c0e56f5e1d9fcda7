// Package chflow provides context-aware channel operations. Every helper
// unblocks as soon as the context is canceled, so goroutines exchanging
// data through these helpers never leak on shutdown.
package chflow

import "context"

// Send delivers data to ch, or gives up when the context is canceled first.
// It reports whether the value was actually sent.
func Send[T any](ctx context.Context, ch chan<- T, data T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- data:
		return true
	}
}

// Receive takes one value from ch. It reports false when the context was
// canceled or the channel was closed before a value arrived, in which case
// the returned value is the zero value of T.
func Receive[T any](ctx context.Context, ch <-chan T) (T, bool) {
	var data T
	select {
	case <-ctx.Done():
		return data, false
	case data, ok := <-ch:
		return data, ok
	}
}

// Gather collects exactly n values from ch, preserving arrival order. It
// reports false if the context was canceled or the channel was closed
// before all n values arrived; the values received so far are returned
// either way.
func Gather[T any](ctx context.Context, ch <-chan T, n int) ([]T, bool) {
	out := make([]T, 0, n)
	for len(out) < n {
		data, ok := Receive(ctx, ch)
		if !ok {
			return out, false
		}
		out = append(out, data)
	}
	return out, true
}
