package resilience

import (
	"context"
	"time"
)

// Retry runs fn up to retries+1 times, doubling the backoff between
// attempts. Only errors for which retryable returns true are retried;
// everything else surfaces immediately. Context cancellation is honored
// between attempts so an aborted phase never sleeps through its deadline.
func Retry(ctx context.Context, retries int, backoff time.Duration, retryable func(error) bool, fn func() error) error {
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = time.Second
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}
	return err
}
