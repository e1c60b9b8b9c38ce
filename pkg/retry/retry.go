package retry

import (
	"context"
	"time"

	appErrors "github.com/uok-ict/portal-api/pkg/errors"
)

// Op is a retryable unit of work, typically one datastore transaction.
type Op func(ctx context.Context) error

// Bounded runs op, retrying only transient storage conflicts up to the given
// number of attempts with a fixed sleep between tries. Allocation reads are
// not row-reserved, so two writers can compute the same "next" identifier;
// the losing writer hits the uniqueness constraint and comes back through
// here. Any non-transient error aborts immediately. When every attempt
// fails with a transient conflict the provided fatal error is returned with
// the last conflict attached.
func Bounded(ctx context.Context, attempts int, backoff time.Duration, fatal *appErrors.Error, op Op) error {
	return BoundedNotify(ctx, attempts, backoff, fatal, nil, op)
}

// BoundedNotify is Bounded with a callback fired once per re-attempt, before
// the backoff sleep. Callers use it to count retries.
func BoundedNotify(ctx context.Context, attempts int, backoff time.Duration, fatal *appErrors.Error, onRetry func(), op Op) error {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return appErrors.Wrap(err, fatal.Code, fatal.Status, fatal.Message)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !appErrors.IsTransient(err) {
			return err
		}
		lastErr = err

		if i < attempts-1 {
			if onRetry != nil {
				onRetry()
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return appErrors.Wrap(ctx.Err(), fatal.Code, fatal.Status, fatal.Message)
			case <-timer.C:
			}
		}
	}

	return appErrors.Wrap(lastErr, fatal.Code, fatal.Status, fatal.Message)
}
