package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/repositories"
)

type txContextKey struct{}

// dbFrom returns the transaction bound to the context when inside RunInTx,
// otherwise the root handle. Every repository reads its handle through this,
// so the same repository value works inside and outside transactions.
func dbFrom(ctx context.Context, root *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return root.WithContext(ctx)
}

const (
	txMaxAttempts  = 3
	txRetryBackoff = 25 * time.Millisecond
)

type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork builds the transactional boundary. Serialization failures
// and deadlocks are retried up to three times with linear backoff.
func NewUnitOfWork(db *gorm.DB) repositories.UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the enclosing transaction.
	if _, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txContextKey{}, tx))
		})
		if err == nil || !isRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return translate("tx.run", ctx.Err())
		case <-time.After(time.Duration(attempt) * txRetryBackoff):
		}
	}
	return err
}
