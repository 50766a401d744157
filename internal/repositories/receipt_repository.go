package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
)

// ReceiptRepository defines the interface for receipt persistence.
type ReceiptRepository interface {
	CreateReceipt(ctx context.Context, executor SQLExecutor, receipt *models.Receipt) error
	GetReceiptByID(ctx context.Context, id int64) (*models.Receipt, error)
	ExistsForOrder(ctx context.Context, executor SQLExecutor, orderID int64) (bool, error)
	GetReceipts(ctx context.Context, filters models.ReceiptFilters) ([]models.Receipt, int, error)
	UpdateFilePath(ctx context.Context, executor SQLExecutor, id int64, path string) error
	DeleteReceipt(ctx context.Context, executor SQLExecutor, id int64) error
}

type receiptRepository struct {
	db *sql.DB
}

// NewReceiptRepository creates a new instance of ReceiptRepository.
func NewReceiptRepository(db *sql.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

const receiptColumns = `r.id, r.receipt_number, r.order_id, r.file_path, r.file_type, r.receipt_data, r.created_at, r.updated_at, o.user_id`

func scanReceipt(s scanner, rc *models.Receipt, extra ...interface{}) error {
	dest := []interface{}{&rc.ID, &rc.ReceiptNumber, &rc.OrderID, &rc.FilePath, &rc.FileType, &rc.ReceiptData, &rc.CreatedAt, &rc.UpdatedAt, &rc.OrderUserID}
	return s.Scan(append(dest, extra...)...)
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, executor SQLExecutor, receipt *models.Receipt) error {
	query := `INSERT INTO receipts (receipt_number, order_id, file_path, file_type, receipt_data)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		receipt.ReceiptNumber, receipt.OrderID, receipt.FilePath, receipt.FileType, receipt.ReceiptData,
	).Scan(&receipt.ID, &receipt.CreatedAt, &receipt.UpdatedAt)
	if err != nil {
		return wrapDBError(err, "creating receipt")
	}
	return nil
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id int64) (*models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts r JOIN orders o ON o.id = r.order_id WHERE r.id = $1`
	rc := &models.Receipt{}
	if err := scanReceipt(r.db.QueryRowContext(ctx, query, id), rc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("getting receipt %d", id))
	}
	return rc, nil
}

func (r *receiptRepository) ExistsForOrder(ctx context.Context, executor SQLExecutor, orderID int64) (bool, error) {
	var exists bool
	if err := executor.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM receipts WHERE order_id = $1)`, orderID).Scan(&exists); err != nil {
		return false, wrapDBError(err, fmt.Sprintf("checking receipt of order %d", orderID))
	}
	return exists, nil
}

func (r *receiptRepository) GetReceipts(ctx context.Context, filters models.ReceiptFilters) ([]models.Receipt, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + receiptColumns + `, COUNT(*) OVER() AS total_count
	          FROM receipts r
	          JOIN orders o ON o.id = r.order_id`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(r.receipt_number ILIKE $%d OR o.order_number ILIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argCounter))
		args = append(args, *filters.UserID)
		argCounter++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("r.created_at >= $%d", argCounter))
		args = append(args, *filters.DateFrom)
		argCounter++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("r.created_at <= $%d", argCounter))
		args = append(args, *filters.DateTo)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	limit, offset := pageBounds(filters.Page, filters.PageSize, 15)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY r.created_at DESC, r.id DESC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "querying receipts")
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	totalCount := 0
	for rows.Next() {
		var rc models.Receipt
		if err := scanReceipt(rows, &rc, &totalCount); err != nil {
			return nil, 0, wrapDBError(err, "scanning receipt")
		}
		receipts = append(receipts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapDBError(err, "iterating receipt rows")
	}
	return receipts, totalCount, nil
}

func (r *receiptRepository) UpdateFilePath(ctx context.Context, executor SQLExecutor, id int64, path string) error {
	res, err := executor.ExecContext(ctx, `UPDATE receipts SET file_path = $1, updated_at = NOW() WHERE id = $2`, path, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating file path of receipt %d", id))
	}
	return expectAffected(res, fmt.Sprintf("updating file path of receipt %d", id))
}

func (r *receiptRepository) DeleteReceipt(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM receipts WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting receipt %d", id))
	}
	return expectAffected(res, fmt.Sprintf("deleting receipt %d", id))
}
