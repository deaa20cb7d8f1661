package adminview

import "context"

// runOptimistic applies a local update, commits it remotely, and returns
// the previous value when the commit fails so callers display a rolled-back
// state instead of juggling ad hoc flags.
func runOptimistic[T any](ctx context.Context, current T, apply func(T) T, commit func(context.Context, T) error) (T, error) {
	next := apply(current)
	if err := commit(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}
