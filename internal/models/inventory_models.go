package models

import "time"

const (
	MovementTypeSale           = "sale"
	MovementTypeOrderCancelled = "order_cancelled"
	MovementTypeOrderDeleted   = "order_deleted"
	MovementTypeAdjustment     = "adjustment"
)

// InventoryMovement records one change of a product's stock.
type InventoryMovement struct {
	ID              int64     `json:"id" db:"id"`
	ProductID       int64     `json:"product_id" db:"product_id"`
	UserID          *int64    `json:"user_id,omitempty" db:"user_id"`
	OrderID         *int64    `json:"order_id,omitempty" db:"order_id"`
	MovementType    string    `json:"movement_type" db:"movement_type"`
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"` // Negative for sales
	StockAfter      int       `json:"stock_after" db:"stock_after"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`

	ProductName *string `json:"product_name,omitempty" db:"-"`
}

// MovementFilters holds the movement list criteria.
type MovementFilters struct {
	ProductID    *int64
	OrderID      *int64
	MovementType *string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
}
