package repositories

import "fmt"

// RepositoryError categorises low-level persistence failures for services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsRetryable() bool
	IsUnavailable() bool
}

type errorKind int

const (
	kindNotFound errorKind = iota
	kindConflict
	kindRetryable
	kindUnavailable
)

type repoError struct {
	kind errorKind
	op   string
	err  error
}

func (e *repoError) Error() string {
	if e.err == nil {
		return e.op
	}
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *repoError) Unwrap() error      { return e.err }
func (e *repoError) IsNotFound() bool   { return e.kind == kindNotFound }
func (e *repoError) IsConflict() bool   { return e.kind == kindConflict }
func (e *repoError) IsRetryable() bool  { return e.kind == kindRetryable }
func (e *repoError) IsUnavailable() bool {
	return e.kind == kindUnavailable
}

// NotFoundError builds a categorised not-found error.
func NotFoundError(op string, err error) RepositoryError {
	return &repoError{kind: kindNotFound, op: op, err: err}
}

// ConflictError builds a categorised uniqueness/state conflict error.
func ConflictError(op string, err error) RepositoryError {
	return &repoError{kind: kindConflict, op: op, err: err}
}

// RetryableError builds a categorised serialization-failure error; the unit
// of work retries these with backoff before surfacing them.
func RetryableError(op string, err error) RepositoryError {
	return &repoError{kind: kindRetryable, op: op, err: err}
}

// UnavailableError builds a categorised backend-unavailable error.
func UnavailableError(op string, err error) RepositoryError {
	return &repoError{kind: kindUnavailable, op: op, err: err}
}
