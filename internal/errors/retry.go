package errors

import (
	"context"
	"errors"
	"time"
)

const (
	MaxRetries     = 3
	InitialBackoff = 100 * time.Millisecond
	MaxBackoff     = 5 * time.Second
)

// WithRetry runs fn until it succeeds, returns a non-retryable error, or
// the attempt budget is spent. Backoff doubles per attempt and the wait
// aborts as soon as ctx is cancelled.
func WithRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := InitialBackoff
	var err error

	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == MaxRetries {
			return err
		}

		if waitErr := sleepCtx(ctx, backoff); waitErr != nil {
			return waitErr
		}

		backoff *= 2
		if backoff > MaxBackoff {
			backoff = MaxBackoff
		}
	}
}

// IsRetryable reports whether err, anywhere in its chain, is an AppError
// flagged for redelivery.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}

	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
