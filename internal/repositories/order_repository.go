package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	// LoadOrder is GetOrderByID read through executor, for callers already
	// inside a transaction.
	LoadOrder(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	// GetOrderForUpdate reads the order row and locks it for the rest of the
	// transaction of executor.
	GetOrderForUpdate(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, executor SQLExecutor, orderID int64, status, paymentStatus string, completedAt *time.Time) error
	UpdatePaymentStatus(ctx context.Context, executor SQLExecutor, orderID int64, paymentStatus string) error
	DeleteOrder(ctx context.Context, executor SQLExecutor, orderID int64) error
	CountOpenOrdersForTable(ctx context.Context, executor SQLExecutor, tableID int64) (int, error)

	// OrderLine methods
	CreateOrderLine(ctx context.Context, executor SQLExecutor, line *models.OrderLine) error
	GetOrderLines(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.OrderLine, error)
	DeleteOrderLines(ctx context.Context, executor SQLExecutor, orderID int64) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.order_number, o.user_id, o.table_id, o.subtotal, o.tax, o.total,
	o.status, o.payment_status, o.notes, o.completed_at, o.created_at, o.updated_at`

func scanOrder(s scanner, o *models.Order, extra ...interface{}) error {
	dest := []interface{}{
		&o.ID, &o.OrderNumber, &o.UserID, &o.TableID, &o.Subtotal, &o.Tax, &o.Total,
		&o.Status, &o.PaymentStatus, &o.Notes, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	query := `INSERT INTO orders
	            (order_number, user_id, table_id, subtotal, tax, total, status, payment_status, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		order.OrderNumber, order.UserID, order.TableID, order.Subtotal, order.Tax, order.Total,
		order.Status, order.PaymentStatus, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return wrapDBError(err, "creating order")
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.LoadOrder(ctx, r.db, orderID)
}

func (r *orderRepository) LoadOrder(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + `, u.name, t.table_number
	          FROM orders o
	          JOIN users u ON u.id = o.user_id
	          LEFT JOIN tables t ON t.id = o.table_id
	          WHERE o.id = $1`
	o := &models.Order{}
	if err := scanOrder(executor.QueryRowContext(ctx, query, orderID), o, &o.UserName, &o.TableNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("getting order by ID %d", orderID))
	}
	lines, err := r.GetOrderLines(ctx, executor, orderID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, u.name, t.table_number, COUNT(*) OVER() AS total_count
	          FROM orders o
	          JOIN users u ON u.id = o.user_id
	          LEFT JOIN tables t ON t.id = o.table_id`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.PaymentStatus != nil && *filters.PaymentStatus != "" {
		conditions = append(conditions, fmt.Sprintf("o.payment_status = $%d", argCounter))
		args = append(args, *filters.PaymentStatus)
		argCounter++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argCounter))
		args = append(args, *filters.UserID)
		argCounter++
	}
	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d", argCounter))
		args = append(args, *filters.DateFrom)
		argCounter++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at <= $%d", argCounter))
		args = append(args, *filters.DateTo)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	limit, offset := pageBounds(filters.Page, filters.PageSize, 15)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "querying orders")
	}
	defer rows.Close()

	orders := []models.Order{}
	totalCount := 0
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o, &o.UserName, &o.TableNumber, &totalCount); err != nil {
			return nil, 0, wrapDBError(err, "scanning order")
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapDBError(err, "iterating order rows")
	}
	if len(orders) == 0 {
		return orders, totalCount, nil
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, totalCount, nil
}

// attachLines loads the lines of all listed orders with a single query.
func (r *orderRepository) attachLines(ctx context.Context, orders []models.Order) error {
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Lines = []models.OrderLine{}
	}

	query := `SELECT ` + orderLineColumns + `, p.name
	          FROM order_lines ol
	          JOIN products p ON p.id = ol.product_id
	          WHERE ol.order_id = ANY($1)
	          ORDER BY ol.order_id, ol.position`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return wrapDBError(err, "querying lines of listed orders")
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		if err := scanOrderLine(rows, &line, &line.ProductName); err != nil {
			return wrapDBError(err, "scanning order line")
		}
		if i, ok := index[line.OrderID]; ok {
			orders[i].Lines = append(orders[i].Lines, line)
		}
	}
	if err := rows.Err(); err != nil {
		return wrapDBError(err, "iterating order line rows")
	}
	return nil
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1 FOR UPDATE`
	o := &models.Order{}
	if err := scanOrder(executor.QueryRowContext(ctx, query, orderID), o); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("locking order %d", orderID))
	}
	return o, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, executor SQLExecutor, orderID int64, status, paymentStatus string, completedAt *time.Time) error {
	query := `UPDATE orders SET status = $1, payment_status = $2, completed_at = $3, updated_at = NOW() WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, status, paymentStatus, completedAt, orderID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating order status for ID %d", orderID))
	}
	return expectAffected(result, fmt.Sprintf("updating order status for ID %d", orderID))
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, executor SQLExecutor, orderID int64, paymentStatus string) error {
	query := `UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, paymentStatus, orderID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating payment status for ID %d", orderID))
	}
	return expectAffected(result, fmt.Sprintf("updating payment status for ID %d", orderID))
}

func (r *orderRepository) DeleteOrder(ctx context.Context, executor SQLExecutor, orderID int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting order ID %d", orderID))
	}
	return expectAffected(result, fmt.Sprintf("deleting order ID %d", orderID))
}

func (r *orderRepository) CountOpenOrdersForTable(ctx context.Context, executor SQLExecutor, tableID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE table_id = $1 AND status = ANY($2)`
	if err := executor.QueryRowContext(ctx, query, tableID, pq.Array(models.OpenOrderStatuses)).Scan(&count); err != nil {
		return 0, wrapDBError(err, fmt.Sprintf("counting open orders of table %d", tableID))
	}
	return count, nil
}

// --- OrderLine Methods ---

const orderLineColumns = `ol.id, ol.order_id, ol.product_id, ol.position, ol.quantity, ol.unit_price, ol.line_total, ol.notes, ol.created_at`

func scanOrderLine(s scanner, l *models.OrderLine, extra ...interface{}) error {
	dest := []interface{}{&l.ID, &l.OrderID, &l.ProductID, &l.Position, &l.Quantity, &l.UnitPrice, &l.LineTotal, &l.Notes, &l.CreatedAt}
	return s.Scan(append(dest, extra...)...)
}

func (r *orderRepository) CreateOrderLine(ctx context.Context, executor SQLExecutor, line *models.OrderLine) error {
	query := `INSERT INTO order_lines (order_id, product_id, position, quantity, unit_price, line_total, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		line.OrderID, line.ProductID, line.Position, line.Quantity, line.UnitPrice, line.LineTotal, line.Notes,
	).Scan(&line.ID, &line.CreatedAt)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("creating order line (product_id: %d)", line.ProductID))
	}
	return nil
}

func (r *orderRepository) GetOrderLines(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.OrderLine, error) {
	query := `SELECT ` + orderLineColumns + `, p.name
	          FROM order_lines ol
	          JOIN products p ON p.id = ol.product_id
	          WHERE ol.order_id = $1
	          ORDER BY ol.position`
	rows, err := executor.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("querying order lines for order ID %d", orderID))
	}
	defer rows.Close()

	lines := []models.OrderLine{}
	for rows.Next() {
		var line models.OrderLine
		if err := scanOrderLine(rows, &line, &line.ProductName); err != nil {
			return nil, wrapDBError(err, fmt.Sprintf("scanning order line for order ID %d", orderID))
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("iterating order line rows for order ID %d", orderID))
	}
	return lines, nil
}

func (r *orderRepository) DeleteOrderLines(ctx context.Context, executor SQLExecutor, orderID int64) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting order lines for order ID %d", orderID))
	}
	return nil
}
