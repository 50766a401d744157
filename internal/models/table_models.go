package models

import "time"

const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusReserved  = "reserved"
	TableStatusDisabled  = "disabled"
)

// IsValidTableStatus reports whether s is a known table status.
func IsValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusDisabled:
		return true
	}
	return false
}

// Table is a physical dining table.
type Table struct {
	ID          int64     `json:"id" db:"id"`
	TableNumber string    `json:"table_number" db:"table_number"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type CreateTableRequest struct {
	TableNumber string  `json:"table_number" binding:"required,max=20"`
	Capacity    int     `json:"capacity" binding:"required,gte=1"`
	Status      *string `json:"status" binding:"omitempty,oneof=available occupied reserved disabled"`
}

type UpdateTableRequest struct {
	TableNumber *string `json:"table_number" binding:"omitempty,max=20"`
	Capacity    *int    `json:"capacity" binding:"omitempty,gte=1"`
}

type UpdateTableStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available occupied reserved disabled"`
}
