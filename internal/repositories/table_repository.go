package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"
)

// TableRepository defines the interface for dining table operations.
type TableRepository interface {
	CreateTable(ctx context.Context, executor SQLExecutor, table *models.Table) error
	GetTableByID(ctx context.Context, id int64) (*models.Table, error)
	GetTables(ctx context.Context, status *string) ([]models.Table, error)
	UpdateTable(ctx context.Context, executor SQLExecutor, table *models.Table) error
	DeleteTable(ctx context.Context, executor SQLExecutor, id int64) error

	// GetTableForUpdate reads the table and keeps its row locked until the
	// transaction of executor ends.
	GetTableForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.Table, error)
	UpdateTableStatus(ctx context.Context, executor SQLExecutor, id int64, status string) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

const tableColumns = `id, table_number, capacity, status, created_at, updated_at`

func scanTable(s scanner, t *models.Table) error {
	return s.Scan(&t.ID, &t.TableNumber, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt)
}

func (r *tableRepository) CreateTable(ctx context.Context, executor SQLExecutor, table *models.Table) error {
	query := `INSERT INTO tables (table_number, capacity, status)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, table.TableNumber, table.Capacity, table.Status).
		Scan(&table.ID, &table.CreatedAt, &table.UpdatedAt)
	if err != nil {
		return wrapDBError(err, "creating table")
	}
	return nil
}

func (r *tableRepository) GetTableByID(ctx context.Context, id int64) (*models.Table, error) {
	t := &models.Table{}
	err := scanTable(r.db.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1`, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("getting table %d", id))
	}
	return t, nil
}

func (r *tableRepository) GetTables(ctx context.Context, status *string) ([]models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY table_number ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, "listing tables")
	}
	defer rows.Close()

	tables := []models.Table{}
	for rows.Next() {
		var t models.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, wrapDBError(err, "scanning table row")
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating table rows")
	}
	return tables, nil
}

func (r *tableRepository) UpdateTable(ctx context.Context, executor SQLExecutor, table *models.Table) error {
	query := `UPDATE tables SET table_number = $1, capacity = $2, updated_at = NOW()
	          WHERE id = $3 RETURNING status, updated_at`
	err := executor.QueryRowContext(ctx, query, table.TableNumber, table.Capacity, table.ID).
		Scan(&table.Status, &table.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapDBError(err, fmt.Sprintf("updating table %d", table.ID))
	}
	return nil
}

func (r *tableRepository) DeleteTable(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting table %d", id))
	}
	return expectAffected(res, fmt.Sprintf("deleting table %d", id))
}

func (r *tableRepository) GetTableForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.Table, error) {
	t := &models.Table{}
	err := scanTable(executor.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1 FOR UPDATE`, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("locking table %d", id))
	}
	return t, nil
}

func (r *tableRepository) UpdateTableStatus(ctx context.Context, executor SQLExecutor, id int64, status string) error {
	res, err := executor.ExecContext(ctx, `UPDATE tables SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating status of table %d", id))
	}
	return expectAffected(res, fmt.Sprintf("updating status of table %d", id))
}
