package utils

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// MaxTxRetries is how many times a transaction is re-run after a
// serialization failure or deadlock
const MaxTxRetries = 3

// IsRetryable reports whether the database asked for the transaction to be retried
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint violation
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// WithTransaction runs fn in one transaction and commits when it returns nil.
// Serialization failures and deadlocks re-run fn with jittered backoff.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	backoff := 50 * time.Millisecond
	var err error

	for attempt := 0; attempt <= MaxTxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !IsRetryable(err) {
			return err
		}

		LogDebug("Retrying transaction after attempt %d: %v", attempt+1, err)
		jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return err
}
