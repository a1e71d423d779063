package database

import (
	"context"
	"database/sql"
	"math/rand"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const (
	retryBaseDelay = 50 * time.Millisecond
	retryMaxDelay  = 2 * time.Second
)

var sqliteContention = []string{
	"database is locked",
	"database table is locked",
	"SQLITE_BUSY",
	"SQLITE_LOCKED",
	"(5)",
	"(6)",
}

// isRetryable reports whether a failed transaction can simply be replayed:
// SQLite lock contention, or a Postgres serialization failure or deadlock.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if code := pgCode(err); code != "" {
		return code == pgSerializationFailure || code == pgDeadlockDetected
	}
	msg := err.Error()
	for _, needle := range sqliteContention {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// backoff doubles per attempt with up to 25% jitter, capped at retryMaxDelay.
func backoff(attempt int) time.Duration {
	d := retryBaseDelay << attempt
	if d <= 0 || d > retryMaxDelay {
		d = retryMaxDelay
	}
	d += time.Duration(rand.Int63n(int64(d/4) + 1))
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	return d
}

// retry calls fn once plus up to maxRetries more times while it keeps
// failing with a retryable error.
func retry(ctx context.Context, maxRetries int, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || attempt >= maxRetries || !isRetryable(err) {
			return err
		}

		t := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunInTx runs fn inside a transaction. The whole transaction is replayed
// on contention, so fn must not have side effects outside of tx.
func RunInTx(ctx context.Context, db *bun.DB, maxRetries int, fn func(ctx context.Context, tx bun.Tx) error) error {
	return retry(ctx, maxRetries, func() error {
		return db.RunInTx(ctx, &sql.TxOptions{}, fn)
	})
}
