package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products on the menu.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Products []Product `json:"products,omitempty" db:"-"`
}

// Product is a sellable menu item with tracked stock.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	CategoryID  int64           `json:"category_id" db:"category_id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	IsAvailable bool            `json:"is_available" db:"is_available"`
	Image       *string         `json:"image,omitempty" db:"image"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`

	CategoryName *string `json:"category_name,omitempty" db:"-"`
}

// ProductFilters holds the product list criteria.
type ProductFilters struct {
	CategoryID  *int64
	IsAvailable *bool
	Search      *string
	Page        int
	PageSize    int
}

type CategoryRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type CreateProductRequest struct {
	CategoryID  int64            `json:"category_id" binding:"required"`
	Name        string           `json:"name" binding:"required,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Stock       int              `json:"stock" binding:"gte=0"`
	IsAvailable *bool            `json:"is_available"`
}

type UpdateProductRequest struct {
	CategoryID  *int64           `json:"category_id"`
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"is_available"`
}

type UpdateStockRequest struct {
	Stock  *int   `json:"stock" binding:"required,gte=0"`
	Reason string `json:"reason" binding:"max=255"`
}
