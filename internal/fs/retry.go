package fs

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxRetries = 5

// retry runs fn with exponential backoff, retrying transient errors only.
// It is used by copy and rename operations.
func retry(ctx context.Context, opName string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 0

	var attempts int
	err := backoff.Retry(func() error {
		attempts++

		err := fn()
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries-1), ctx))
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !isTransient(err) {
		return fmt.Errorf("%s failed permanently: %w", opName, err)
	}
	return fmt.Errorf("%s failed after %d retries: %w", opName, attempts, err)
}
