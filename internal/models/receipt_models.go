package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const ReceiptFileTypePDF = "pdf"

// Receipt is the printable proof of an order. ReceiptData is frozen when the
// receipt is created and never follows later changes of the order.
type Receipt struct {
	ID            int64       `json:"id" db:"id"`
	ReceiptNumber string      `json:"receipt_number" db:"receipt_number"`
	OrderID       int64       `json:"order_id" db:"order_id"`
	FilePath      *string     `json:"file_path,omitempty" db:"file_path"`
	FileType      string      `json:"file_type" db:"file_type"`
	ReceiptData   ReceiptData `json:"receipt_data" db:"receipt_data"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`

	OrderUserID int64 `json:"-" db:"-"`
}

// ReceiptData is the snapshot printed on a receipt.
type ReceiptData struct {
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	TableNumber  *string         `json:"table_number,omitempty"`
	OrderDate    time.Time       `json:"order_date"`
	Items        []ReceiptItem   `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Notes        *string         `json:"notes,omitempty"`
}

type ReceiptItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
	Notes    *string         `json:"notes,omitempty"`
}

// Value stores the snapshot as JSONB.
func (d ReceiptData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan reads the snapshot from a JSONB column.
func (d *ReceiptData) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = ReceiptData{}
		return nil
	}
	return errors.New("receipt data: unsupported column type")
}

// ReceiptFilters holds the receipt list criteria.
type ReceiptFilters struct {
	Search   *string
	UserID   *int64
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

type CreateReceiptRequest struct {
	OrderID  int64  `json:"order_id" binding:"required"`
	FileType string `json:"file_type" binding:"omitempty,oneof=pdf"`
}

// ReceiptHeader is the venue information printed above the items.
type ReceiptHeader struct {
	RestaurantName    string
	RestaurantAddress string
	Footer            string
}
