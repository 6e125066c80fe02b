package scenario

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Fan runs n independent calls with at most workers of them in flight and gathers their results by index.
// A failing call does not stop its siblings. Once ctx is done no further call is started; their slots are
// left as the zero value.
func Fan[T any](ctx context.Context, workers, n int, call func(ctx context.Context, i int) T) []T {
	if workers < 1 {
		workers = 1
	}
	results := make([]T, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			results[i] = call(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
