package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/laptopstore/api/internal/repositories"
)

// Postgres error codes the repositories branch on.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// translate folds a gorm/pgx failure into the repository error taxonomy.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.NotFoundError(op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return repositories.UnavailableError(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return repositories.ConflictError(op, err)
		case codeSerializationFailure, codeDeadlockDetected:
			return repositories.RetryableError(op, err)
		}
	}
	return repositories.UnavailableError(op, err)
}

// isRetryable reports whether the error is a serialization failure worth
// retrying inside the unit of work.
func isRetryable(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsRetryable()
}
