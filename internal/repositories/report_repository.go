package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ReportRepository runs the aggregate queries behind the statistics endpoints.
// Ranges are half-open: from <= created_at < to.
type ReportRepository interface {
	OrderTotals(ctx context.Context, from, to time.Time) (orders int, paidRevenue decimal.Decimal, err error)
	StatusDistribution(ctx context.Context, from, to time.Time) ([]models.StatusCount, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error)
	PaidSummary(ctx context.Context, from, to time.Time) (*models.SalesSummary, error)
	SalesBuckets(ctx context.Context, from, to time.Time, groupBy string) ([]models.SalesBucket, error)
	ProductSales(ctx context.Context, from, to time.Time) ([]models.ProductSales, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// periodExpressions maps a grouping to the SQL that labels each order.
var periodExpressions = map[string]string{
	models.GroupByDay:   `to_char(created_at, 'YYYY-MM-DD')`,
	models.GroupByWeek:  `to_char(created_at, 'IYYY-"W"IW')`,
	models.GroupByMonth: `to_char(created_at, 'YYYY-MM')`,
}

func (r *reportRepository) OrderTotals(ctx context.Context, from, to time.Time) (int, decimal.Decimal, error) {
	query := `SELECT COUNT(*),
	                 COALESCE(SUM(total) FILTER (WHERE payment_status = 'paid'), 0)
	          FROM orders
	          WHERE created_at >= $1 AND created_at < $2`
	var orders int
	var revenue decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&orders, &revenue); err != nil {
		return 0, decimal.Zero, wrapDBError(err, "summing orders")
	}
	return orders, revenue, nil
}

func (r *reportRepository) StatusDistribution(ctx context.Context, from, to time.Time) ([]models.StatusCount, error) {
	query := `SELECT status, COUNT(*)
	          FROM orders
	          WHERE created_at >= $1 AND created_at < $2
	          GROUP BY status
	          ORDER BY status`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, wrapDBError(err, "querying status distribution")
	}
	defer rows.Close()

	out := []models.StatusCount{}
	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, wrapDBError(err, "scanning status distribution")
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating status distribution")
	}
	return out, nil
}

func (r *reportRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error) {
	query := `SELECT p.id, p.name, SUM(ol.quantity) AS sold, SUM(ol.line_total) AS revenue
	          FROM order_lines ol
	          JOIN orders o ON o.id = ol.order_id
	          JOIN products p ON p.id = ol.product_id
	          WHERE o.created_at >= $1 AND o.created_at < $2 AND o.payment_status = 'paid'
	          GROUP BY p.id, p.name
	          ORDER BY sold DESC, p.id ASC
	          LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, wrapDBError(err, "querying top products")
	}
	defer rows.Close()

	out := []models.TopProduct{}
	for rows.Next() {
		var tp models.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.Quantity, &tp.Revenue); err != nil {
			return nil, wrapDBError(err, "scanning top product")
		}
		out = append(out, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating top products")
	}
	return out, nil
}

func (r *reportRepository) PaidSummary(ctx context.Context, from, to time.Time) (*models.SalesSummary, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(o.total), 0), COALESCE(AVG(o.total), 0),
	                 COALESCE((SELECT SUM(ol.quantity)
	                           FROM order_lines ol
	                           JOIN orders o2 ON o2.id = ol.order_id
	                           WHERE o2.created_at >= $1 AND o2.created_at < $2 AND o2.payment_status = 'paid'), 0)
	          FROM orders o
	          WHERE o.created_at >= $1 AND o.created_at < $2 AND o.payment_status = 'paid'`
	s := &models.SalesSummary{}
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&s.TotalOrders, &s.TotalRevenue, &s.AverageOrderValue, &s.TotalItemsSold); err != nil {
		return nil, wrapDBError(err, "summarizing paid orders")
	}
	s.AverageOrderValue = s.AverageOrderValue.Round(2)
	return s, nil
}

func (r *reportRepository) SalesBuckets(ctx context.Context, from, to time.Time, groupBy string) ([]models.SalesBucket, error) {
	expr, ok := periodExpressions[groupBy]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported grouping %q", ErrDatabaseError, groupBy)
	}
	query := fmt.Sprintf(`SELECT %s AS period, COUNT(*), SUM(total), AVG(total)
	          FROM orders
	          WHERE created_at >= $1 AND created_at < $2 AND payment_status = 'paid'
	          GROUP BY period
	          ORDER BY period`, expr)
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, wrapDBError(err, "querying sales buckets")
	}
	defer rows.Close()

	out := []models.SalesBucket{}
	for rows.Next() {
		var b models.SalesBucket
		if err := rows.Scan(&b.Period, &b.Orders, &b.Revenue, &b.AverageOrderValue); err != nil {
			return nil, wrapDBError(err, "scanning sales bucket")
		}
		b.AverageOrderValue = b.AverageOrderValue.Round(2)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating sales buckets")
	}
	return out, nil
}

func (r *reportRepository) ProductSales(ctx context.Context, from, to time.Time) ([]models.ProductSales, error) {
	query := `SELECT p.id, p.name, SUM(ol.quantity), SUM(ol.line_total) AS revenue
	          FROM order_lines ol
	          JOIN orders o ON o.id = ol.order_id
	          JOIN products p ON p.id = ol.product_id
	          WHERE o.created_at >= $1 AND o.created_at < $2 AND o.payment_status = 'paid'
	          GROUP BY p.id, p.name
	          ORDER BY revenue DESC, p.id ASC`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, wrapDBError(err, "querying product sales")
	}
	defer rows.Close()

	out := []models.ProductSales{}
	for rows.Next() {
		var ps models.ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.ProductName, &ps.Quantity, &ps.Revenue); err != nil {
			return nil, wrapDBError(err, "scanning product sales")
		}
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating product sales")
	}
	return out, nil
}
