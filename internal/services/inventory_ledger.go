package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

// InventoryLedger owns every change of product stock. All methods run on the
// executor of the caller's transaction.
type InventoryLedger struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.InventoryMovementRepository
}

// NewInventoryLedger creates a new InventoryLedger.
func NewInventoryLedger(pr repositories.ProductRepository, mr repositories.InventoryMovementRepository) *InventoryLedger {
	return &InventoryLedger{productRepo: pr, movementRepo: mr}
}

// StockChange attributes a movement to a user, an order and a reason.
type StockChange struct {
	UserID       *int64
	OrderID      *int64
	MovementType string
	Reason       string
}

// LockProducts locks the distinct products in ascending id order, the one
// order every workflow uses, and returns them keyed by id. Ids that do not
// resolve are simply absent from the result.
func (l *InventoryLedger) LockProducts(ctx context.Context, exec repositories.SQLExecutor, ids []int64) (map[int64]*models.Product, error) {
	distinct := uniqueSorted(ids)
	rows, err := l.productRepo.LockProducts(ctx, exec, distinct)
	if err != nil {
		return nil, internalError("locking products", err)
	}
	locked := make(map[int64]*models.Product, len(rows))
	for id, p := range rows {
		p := p
		locked[id] = &p
	}
	return locked, nil
}

// Reserve takes qty units of a locked product. The product's Stock field is
// kept current so later lines of the same order see the decrement.
func (l *InventoryLedger) Reserve(ctx context.Context, exec repositories.SQLExecutor, product *models.Product, qty int) error {
	if qty < 1 {
		return newValidationError(map[string]string{"quantity": "must be at least 1"})
	}
	if !product.IsAvailable {
		return fmt.Errorf("%w: product %s (ID: %d) is not available", ErrProductUnavailable, product.Name, product.ID)
	}
	if qty > product.Stock {
		return &StockError{ProductID: product.ID, ProductName: product.Name, Requested: qty, Available: product.Stock}
	}

	stock, err := l.productRepo.DecrementStock(ctx, exec, product.ID, qty)
	if err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return &StockError{ProductID: product.ID, ProductName: product.Name, Requested: qty, Available: product.Stock}
		}
		return internalError(fmt.Sprintf("reserving stock of product %d", product.ID), err)
	}
	product.Stock = stock
	return nil
}

// Release returns qty units to a product and reports the resulting stock.
func (l *InventoryLedger) Release(ctx context.Context, exec repositories.SQLExecutor, productID int64, qty int) (int, error) {
	stock, err := l.productRepo.IncrementStock(ctx, exec, productID, qty)
	if err != nil {
		return 0, internalError(fmt.Sprintf("releasing stock of product %d", productID), err)
	}
	return stock, nil
}

// ReleaseLines restores the stock of every line. Products are locked first in
// ascending id order; lines are then processed in their stored order.
func (l *InventoryLedger) ReleaseLines(ctx context.Context, exec repositories.SQLExecutor, lines []models.OrderLine, change StockChange) error {
	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	if _, err := l.LockProducts(ctx, exec, ids); err != nil {
		return err
	}
	for _, line := range lines {
		stock, err := l.Release(ctx, exec, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
		if err := l.Record(ctx, exec, line.ProductID, line.Quantity, stock, change); err != nil {
			return err
		}
	}
	return nil
}

// SetStock overwrites the stock of a product and records the difference as an
// adjustment.
func (l *InventoryLedger) SetStock(ctx context.Context, exec repositories.SQLExecutor, productID int64, stock int, change StockChange) error {
	if stock < 0 {
		return newValidationError(map[string]string{"stock": "must be greater than or equal to 0"})
	}
	locked, err := l.LockProducts(ctx, exec, []int64{productID})
	if err != nil {
		return err
	}
	p, ok := locked[productID]
	if !ok {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	delta := stock - p.Stock
	if delta == 0 {
		return nil
	}
	if err := l.productRepo.SetStock(ctx, exec, productID, stock); err != nil {
		return internalError(fmt.Sprintf("setting stock of product %d", productID), err)
	}
	return l.Record(ctx, exec, productID, delta, stock, change)
}

// Record writes a movement row for an applied stock change.
func (l *InventoryLedger) Record(ctx context.Context, exec repositories.SQLExecutor, productID int64, delta, stockAfter int, change StockChange) error {
	m := &models.InventoryMovement{
		ProductID:       productID,
		UserID:          change.UserID,
		OrderID:         change.OrderID,
		MovementType:    change.MovementType,
		QuantityChanged: delta,
		StockAfter:      stockAfter,
	}
	if change.Reason != "" {
		reason := change.Reason
		m.Reason = &reason
	}
	if err := l.movementRepo.CreateMovement(ctx, exec, m); err != nil {
		return internalError("recording inventory movement", err)
	}
	return nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
