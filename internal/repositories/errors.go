package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It wraps the driver error so callers can still inspect it.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrReferenced is returned when a delete is blocked by rows pointing at the record.
	ErrReferenced = errors.New("record is referenced by other records")

	// ErrConditionFailed is returned when a guarded update matched no row.
	ErrConditionFailed = errors.New("guarded update did not match the current row state")
)

// PostgreSQL error codes inspected by the repositories.
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// wrapDBError classifies a driver error. The original error stays in the chain.
func wrapDBError(err error, action string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s: %w", ErrDuplicateKey, action, err)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s: %w", ErrReferenced, action, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrDatabaseError, action, err)
}

// IsRetryable reports whether err is a serialization failure or deadlock
// after which the whole transaction can be run again.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure || pqErr.Code == pqDeadlockDetected
	}
	return false
}

// pageBounds normalizes pagination input to LIMIT/OFFSET values.
func pageBounds(page, pageSize, defaultSize int) (limit, offset int) {
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > 100 {
		pageSize = 100
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
