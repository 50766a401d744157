package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"

	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminalOrderStatus reports whether no further transition is allowed.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OpenOrderStatuses are the statuses of orders that still hold their table.
var OpenOrderStatuses = []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady}

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// Order is a customer order. Money fields are fixed at creation. TableID
// becomes nil when the table is deleted later.
type Order struct {
	ID            int64           `json:"id" db:"id"`
	OrderNumber   string          `json:"order_number" db:"order_number"`
	UserID        int64           `json:"user_id" db:"user_id"`
	TableID       *int64          `json:"table_id,omitempty" db:"table_id"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax           decimal.Decimal `json:"tax" db:"tax"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Status        string          `json:"status" db:"status"`
	PaymentStatus string          `json:"payment_status" db:"payment_status"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	UserName    *string     `json:"user_name,omitempty" db:"-"`
	TableNumber *string     `json:"table_number,omitempty" db:"-"`
	Lines       []OrderLine `json:"lines" db:"-"`
}

// OrderLine is one product entry of an order. UnitPrice is the product price
// captured when the order was created.
type OrderLine struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Position  int             `json:"position" db:"position"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
	Notes     *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`

	ProductName *string `json:"product_name,omitempty" db:"-"`
}

// OrderFilters holds the order list criteria. UserID is forced to the
// requester for viewers who may only see their own orders.
type OrderFilters struct {
	Status        *string
	PaymentStatus *string
	UserID        *int64
	TableID       *int64
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
}

type CreateOrderLineRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gte=1"`
	Notes     *string `json:"notes" binding:"omitempty,max=500"`
}

type CreateOrderRequest struct {
	TableID int64                    `json:"table_id" binding:"required"`
	Notes   *string                  `json:"notes" binding:"omitempty,max=1000"`
	Items   []CreateOrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed preparing ready completed cancelled"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=unpaid paid refunded"`
}
