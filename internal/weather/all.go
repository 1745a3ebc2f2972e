package weather

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// All calls fn for every index in [0, n) concurrently and waits for all of
// them. It returns the results in index order, or nil and the first error
// reported. Siblings of a failed call are not cancelled.
func All[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			r, err := fn(ctx, i)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
