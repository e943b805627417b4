package worker

import "context"

// Collect drains exactly n values from results, calling fn for each in
// arrival order. It returns ctx.Err() if ctx ends first.
func Collect[R any](ctx context.Context, results <-chan R, n int, fn func(R)) error {
	for received := 0; received < n; received++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-results:
			fn(r)
		}
	}
	return nil
}
