package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"
)

// CategoryRepository defines the interface for menu category operations.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) error
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	GetCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	UpdateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) error
	DeleteCategory(ctx context.Context, executor SQLExecutor, id int64) error
	CountProducts(ctx context.Context, executor SQLExecutor, id int64) (int, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository.
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) CreateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) error {
	query := `INSERT INTO categories (name, description, is_active)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, category.Name, category.Description, category.IsActive).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return wrapDBError(err, "creating category")
	}
	return nil
}

func (r *categoryRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	c := &models.Category{}
	query := `SELECT id, name, description, is_active, created_at, updated_at FROM categories WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("getting category %d", id))
	}
	return c, nil
}

func (r *categoryRepository) GetCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := `SELECT id, name, description, is_active, created_at, updated_at FROM categories`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapDBError(err, "listing categories")
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, wrapDBError(err, "scanning category row")
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating category rows")
	}
	return categories, nil
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) error {
	query := `UPDATE categories SET name = $1, description = $2, is_active = $3, updated_at = NOW()
	          WHERE id = $4 RETURNING updated_at`
	err := executor.QueryRowContext(ctx, query, category.Name, category.Description, category.IsActive, category.ID).
		Scan(&category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapDBError(err, fmt.Sprintf("updating category %d", category.ID))
	}
	return nil
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting category %d", id))
	}
	return expectAffected(res, fmt.Sprintf("deleting category %d", id))
}

func (r *categoryRepository) CountProducts(ctx context.Context, executor SQLExecutor, id int64) (int, error) {
	var count int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&count); err != nil {
		return 0, wrapDBError(err, fmt.Sprintf("counting products of category %d", id))
	}
	return count, nil
}
