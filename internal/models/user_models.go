package models

import "time"

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
	RoleUser    = "user"
)

// IsValidRole reports whether role is one of the known user roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleCashier, RoleUser:
		return true
	}
	return false
}

// User represents an account that can sign in to the POS.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	TokenVersion int        `json:"-" db:"token_version"`
	LastActivity *time.Time `json:"last_activity,omitempty" db:"last_activity"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// UserFilters holds the admin user list criteria.
type UserFilters struct {
	Search   *string
	Role     *string
	IsActive *bool
	Page     int
	PageSize int
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the payload for self registration.
type RegisterRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// UpdateProfileRequest lets a user edit their own account.
type UpdateProfileRequest struct {
	Name            *string `json:"name" binding:"omitempty,max=255"`
	Email           *string `json:"email" binding:"omitempty,email,max=255"`
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password" binding:"omitempty,min=8"`
}

// CreateUserRequest is used by administrators.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=admin cashier user"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUserRequest is used by administrators; nil fields are left as is.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin cashier user"`
	IsActive *bool   `json:"is_active"`
}
