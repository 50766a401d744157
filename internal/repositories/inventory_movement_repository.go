package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"
)

// InventoryMovementRepository defines the interface for inventory movement-related database operations.
type InventoryMovementRepository interface {
	CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.InventoryMovement) error
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryMovementRepository struct {
	db *sql.DB
}

// NewInventoryMovementRepository creates a new instance of InventoryMovementRepository.
func NewInventoryMovementRepository(db *sql.DB) InventoryMovementRepository {
	return &inventoryMovementRepository{db: db}
}

func (r *inventoryMovementRepository) CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.InventoryMovement) error {
	query := `INSERT INTO inventory_movements
	          (product_id, user_id, order_id, movement_type, quantity_changed, stock_after, reason)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		movement.ProductID, movement.UserID, movement.OrderID, movement.MovementType,
		movement.QuantityChanged, movement.StockAfter, movement.Reason,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return wrapDBError(err, "creating inventory movement")
	}
	return nil
}

func (r *inventoryMovementRepository) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	        im.id, im.product_id, im.user_id, im.order_id, im.movement_type,
	        im.quantity_changed, im.stock_after, im.reason, im.created_at,
	        p.name, COUNT(*) OVER() AS total_count
	    FROM inventory_movements im
	    JOIN products p ON p.id = im.product_id`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("im.product_id = $%d", argCounter))
		args = append(args, *filters.ProductID)
		argCounter++
	}
	if filters.OrderID != nil {
		conditions = append(conditions, fmt.Sprintf("im.order_id = $%d", argCounter))
		args = append(args, *filters.OrderID)
		argCounter++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("im.movement_type = $%d", argCounter))
		args = append(args, *filters.MovementType)
		argCounter++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("im.created_at >= $%d", argCounter))
		args = append(args, *filters.DateFrom)
		argCounter++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("im.created_at <= $%d", argCounter))
		args = append(args, *filters.DateTo)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	limit, offset := pageBounds(filters.Page, filters.PageSize, 20)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY im.created_at DESC, im.id DESC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "querying inventory movements")
	}
	defer rows.Close()

	movements := []models.InventoryMovement{}
	totalCount := 0
	for rows.Next() {
		var m models.InventoryMovement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.UserID, &m.OrderID, &m.MovementType,
			&m.QuantityChanged, &m.StockAfter, &m.Reason, &m.CreatedAt,
			&m.ProductName, &totalCount,
		); err != nil {
			return nil, 0, wrapDBError(err, "scanning inventory movement")
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapDBError(err, "iterating inventory movement rows")
	}
	return movements, totalCount, nil
}
