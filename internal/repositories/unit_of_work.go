package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"restaurant_pos_backend/pkg/utils"
)

// UnitOfWork runs a function inside one database transaction. Everything fn
// writes through exec is committed together or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlUnitOfWork struct {
	db          *sql.DB
	maxAttempts int
}

// NewUnitOfWork returns a UnitOfWork backed by db. fn may run more than once
// when PostgreSQL aborts the transaction with a serialization failure or a
// deadlock, so it must not keep state between attempts.
func NewUnitOfWork(db *sql.DB) UnitOfWork {
	return &sqlUnitOfWork{db: db, maxAttempts: 3}
}

func (u *sqlUnitOfWork) Do(ctx context.Context, fn func(exec SQLExecutor) error) error {
	var err error
	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		err = u.run(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		utils.LogWarn(err, "Transaction aborted, retrying", map[string]interface{}{"attempt": attempt})
	}
	return err
}

func (u *sqlUnitOfWork) run(ctx context.Context, fn func(exec SQLExecutor) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", ErrDatabaseError, err)
	}
	defer tx.Rollback() // no-op after a successful commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", ErrDatabaseError, err)
	}
	return nil
}
