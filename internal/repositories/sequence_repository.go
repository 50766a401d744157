package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	SequenceScopeOrder   = "order"
	SequenceScopeReceipt = "receipt"
)

// SequenceRepository hands out per-day counters used for human-readable
// order and receipt numbers.
type SequenceRepository interface {
	// Next increments and returns the counter of scope for the calendar day of
	// day. The counter row stays locked until the surrounding transaction ends.
	Next(ctx context.Context, executor SQLExecutor, scope string, day time.Time) (int, error)
}

type sequenceRepository struct {
	db *sql.DB
}

// NewSequenceRepository creates a new instance of SequenceRepository.
func NewSequenceRepository(db *sql.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, executor SQLExecutor, scope string, day time.Time) (int, error) {
	query := `INSERT INTO daily_sequences (scope, seq_date, last_value)
	          VALUES ($1, $2, 1)
	          ON CONFLICT (scope, seq_date)
	          DO UPDATE SET last_value = daily_sequences.last_value + 1
	          RETURNING last_value`
	var value int
	if err := executor.QueryRowContext(ctx, query, scope, day.Format("2006-01-02")).Scan(&value); err != nil {
		return 0, wrapDBError(err, fmt.Sprintf("advancing %s sequence", scope))
	}
	return value, nil
}
