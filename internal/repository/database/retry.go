package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// readRetry bounds retries of idempotent read queries. State-mutating
// statements never go through this: a timed-out transition must be re-read,
// not replayed.
func readRetry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx))
}
