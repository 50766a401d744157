package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"
)

// UserRepository defines the interface for user account operations.
type UserRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, int, error)
	UpdateUser(ctx context.Context, executor SQLExecutor, user *models.User) error
	UpdatePassword(ctx context.Context, executor SQLExecutor, id int64, passwordHash string) error
	// SetActive changes the active flag. Deactivation also bumps the token
	// version so every issued token stops working.
	SetActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error
	BumpTokenVersion(ctx context.Context, executor SQLExecutor, id int64) (int, error)
	TouchLastActivity(ctx context.Context, id int64, at time.Time) error
	DeleteUser(ctx context.Context, executor SQLExecutor, id int64) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, is_active, token_version, last_activity, created_at, updated_at`

func scanUser(s scanner, u *models.User, extra ...interface{}) error {
	dest := []interface{}{&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.TokenVersion, &u.LastActivity, &u.CreatedAt, &u.UpdatedAt}
	return s.Scan(append(dest, extra...)...)
}

func (r *userRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) error {
	query := `INSERT INTO users (name, email, password_hash, role, is_active)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, token_version, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, user.Name, strings.ToLower(user.Email), user.PasswordHash, user.Role, user.IsActive).
		Scan(&user.ID, &user.TokenVersion, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return wrapDBError(err, "creating user")
	}
	user.Email = strings.ToLower(user.Email)
	return nil
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)), u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, "finding user by email")
	}
	return u, nil
}

func (r *userRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("finding user %d", id))
	}
	return u, nil
}

func (r *userRepository) GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + userColumns + `, COUNT(*) OVER() AS total_count FROM users`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}
	if filters.Role != nil && *filters.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argCounter))
		args = append(args, *filters.Role)
		argCounter++
	}
	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argCounter))
		args = append(args, *filters.IsActive)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	limit, offset := pageBounds(filters.Page, filters.PageSize, 15)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "listing users")
	}
	defer rows.Close()

	users := []models.User{}
	totalCount := 0
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u, &totalCount); err != nil {
			return nil, 0, wrapDBError(err, "scanning user row")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapDBError(err, "iterating user rows")
	}
	return users, totalCount, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, executor SQLExecutor, user *models.User) error {
	query := `UPDATE users SET name = $1, email = $2, role = $3, is_active = $4, updated_at = NOW()
	          WHERE id = $5 RETURNING updated_at`
	err := executor.QueryRowContext(ctx, query, user.Name, strings.ToLower(user.Email), user.Role, user.IsActive, user.ID).
		Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapDBError(err, fmt.Sprintf("updating user %d", user.ID))
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, executor SQLExecutor, id int64, passwordHash string) error {
	res, err := executor.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating password of user %d", id))
	}
	return expectAffected(res, fmt.Sprintf("updating password of user %d", id))
}

func (r *userRepository) SetActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error {
	query := `UPDATE users
	          SET is_active = $1,
	              token_version = CASE WHEN $1 THEN token_version ELSE token_version + 1 END,
	              updated_at = NOW()
	          WHERE id = $2`
	res, err := executor.ExecContext(ctx, query, active, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("setting active flag of user %d", id))
	}
	return expectAffected(res, fmt.Sprintf("setting active flag of user %d", id))
}

func (r *userRepository) BumpTokenVersion(ctx context.Context, executor SQLExecutor, id int64) (int, error) {
	var version int
	err := executor.QueryRowContext(ctx, `UPDATE users SET token_version = token_version + 1 WHERE id = $1 RETURNING token_version`, id).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, wrapDBError(err, fmt.Sprintf("revoking tokens of user %d", id))
	}
	return version, nil
}

func (r *userRepository) TouchLastActivity(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_activity = $1 WHERE id = $2`, at, id); err != nil {
		return wrapDBError(err, fmt.Sprintf("touching last activity of user %d", id))
	}
	return nil
}

func (r *userRepository) DeleteUser(ctx context.Context, executor SQLExecutor, id int64) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting user %d", id))
	}
	return expectAffected(res, fmt.Sprintf("deleting user %d", id))
}
