package pipeline

import (
	"context"

	"github.com/dgallion1/paperquery/internal/answer"
)

// RetryOnce calls fn and, if it fails with a transient collaborator
// error, re-attempts exactly once. Authorization and non-collaborator
// errors are never retried.
func RetryOnce[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	out, err := fn(ctx)
	if err == nil || !answer.IsRetryable(err) || ctx.Err() != nil {
		return out, err
	}
	return fn(ctx)
}
