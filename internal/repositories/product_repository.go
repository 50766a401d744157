package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"restaurant_pos_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository defines the interface for product-related database operations.
type ProductRepository interface {
	CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error
	DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error
	ToggleAvailability(ctx context.Context, executor SQLExecutor, id int64) (bool, error)
	SetImage(ctx context.Context, executor SQLExecutor, id int64, image string) error

	// LockProducts takes row locks on the given products in ascending id
	// order and returns the locked rows keyed by id. Unknown ids are absent.
	LockProducts(ctx context.Context, executor SQLExecutor, ids []int64) (map[int64]models.Product, error)
	// DecrementStock lowers stock by qty only if enough is on hand and
	// returns the new stock. ErrConditionFailed means it was not.
	DecrementStock(ctx context.Context, executor SQLExecutor, id int64, qty int) (int, error)
	IncrementStock(ctx context.Context, executor SQLExecutor, id int64, qty int) (int, error)
	SetStock(ctx context.Context, executor SQLExecutor, id int64, stock int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.category_id, p.name, p.description, p.price, p.stock, p.is_available, p.image, p.created_at, p.updated_at`

func scanProduct(s scanner, p *models.Product, extra ...interface{}) error {
	dest := []interface{}{&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.IsAvailable, &p.Image, &p.CreatedAt, &p.UpdatedAt}
	return s.Scan(append(dest, extra...)...)
}

func (r *productRepository) CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error {
	query := `INSERT INTO products (category_id, name, description, price, stock, is_available, image)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query,
		product.CategoryID, product.Name, product.Description, product.Price, product.Stock, product.IsAvailable, product.Image,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return wrapDBError(err, "creating product")
	}
	return nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + `, c.name
	          FROM products p
	          JOIN categories c ON c.id = p.category_id
	          WHERE p.id = $1`
	p := &models.Product{}
	if err := scanProduct(r.db.QueryRowContext(ctx, query, id), p, &p.CategoryName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("getting product %d", id))
	}
	return p, nil
}

func (r *productRepository) GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `, c.name, COUNT(*) OVER() AS total_count
	          FROM products p
	          JOIN categories c ON c.id = p.category_id`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCounter))
		args = append(args, *filters.CategoryID)
		argCounter++
	}
	if filters.IsAvailable != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_available = $%d", argCounter))
		args = append(args, *filters.IsAvailable)
		argCounter++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("p.name ILIKE $%d", argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	limit, offset := pageBounds(filters.Page, filters.PageSize, 15)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY p.name ASC, p.id ASC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "listing products")
	}
	defer rows.Close()

	products := []models.Product{}
	totalCount := 0
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p, &p.CategoryName, &totalCount); err != nil {
			return nil, 0, wrapDBError(err, "scanning product row")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapDBError(err, "iterating product rows")
	}
	return products, totalCount, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products
	          SET category_id = $1, name = $2, description = $3, price = $4, is_available = $5, updated_at = NOW()
	          WHERE id = $6
	          RETURNING updated_at`
	err := executor.QueryRowContext(ctx, query,
		product.CategoryID, product.Name, product.Description, product.Price, product.IsAvailable, product.ID,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapDBError(err, fmt.Sprintf("updating product %d", product.ID))
	}
	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting product %d", id))
	}
	return expectAffected(res, fmt.Sprintf("deleting product %d", id))
}

func (r *productRepository) ToggleAvailability(ctx context.Context, executor SQLExecutor, id int64) (bool, error) {
	var available bool
	err := executor.QueryRowContext(ctx,
		`UPDATE products SET is_available = NOT is_available, updated_at = NOW() WHERE id = $1 RETURNING is_available`, id,
	).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, wrapDBError(err, fmt.Sprintf("toggling availability of product %d", id))
	}
	return available, nil
}

func (r *productRepository) SetImage(ctx context.Context, executor SQLExecutor, id int64, image string) error {
	res, err := executor.ExecContext(ctx, `UPDATE products SET image = $1, updated_at = NOW() WHERE id = $2`, image, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("setting image of product %d", id))
	}
	return expectAffected(res, fmt.Sprintf("setting image of product %d", id))
}

func (r *productRepository) LockProducts(ctx context.Context, executor SQLExecutor, ids []int64) (map[int64]models.Product, error) {
	query := `SELECT ` + productColumns + `
	          FROM products p
	          WHERE p.id = ANY($1)
	          ORDER BY p.id
	          FOR UPDATE`
	rows, err := executor.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, wrapDBError(err, "locking products")
	}
	defer rows.Close()

	locked := make(map[int64]models.Product, len(ids))
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, wrapDBError(err, "scanning locked product")
		}
		locked[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating locked products")
	}
	return locked, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, executor SQLExecutor, id int64, qty int) (int, error) {
	var stock int
	err := executor.QueryRowContext(ctx,
		`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1 RETURNING stock`, qty, id,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrConditionFailed
		}
		return 0, wrapDBError(err, fmt.Sprintf("decrementing stock of product %d", id))
	}
	return stock, nil
}

func (r *productRepository) IncrementStock(ctx context.Context, executor SQLExecutor, id int64, qty int) (int, error) {
	var stock int
	err := executor.QueryRowContext(ctx,
		`UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2 RETURNING stock`, qty, id,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, wrapDBError(err, fmt.Sprintf("incrementing stock of product %d", id))
	}
	return stock, nil
}

func (r *productRepository) SetStock(ctx context.Context, executor SQLExecutor, id int64, stock int) error {
	res, err := executor.ExecContext(ctx, `UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2`, stock, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("setting stock of product %d", id))
	}
	return expectAffected(res, fmt.Sprintf("setting stock of product %d", id))
}

// expectAffected turns a zero-row write into ErrNotFound.
func expectAffected(res sql.Result, action string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err, action)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
