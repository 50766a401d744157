package services

import (
	"context"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
)

// TableTracker moves tables between available and occupied on behalf of the
// order workflow. Both operations lock the table row in the caller's
// transaction.
type TableTracker struct {
	tableRepo repositories.TableRepository
}

// NewTableTracker creates a new TableTracker.
func NewTableTracker(tr repositories.TableRepository) *TableTracker {
	return &TableTracker{tableRepo: tr}
}

// Claim marks an available table occupied. Any other status is refused.
func (t *TableTracker) Claim(ctx context.Context, exec repositories.SQLExecutor, tableID int64) (*models.Table, error) {
	table, err := t.lock(ctx, exec, tableID)
	if err != nil {
		return nil, err
	}
	if table.Status != models.TableStatusAvailable {
		return nil, fmt.Errorf("%w: table %s is %s", ErrTableUnavailable, table.TableNumber, table.Status)
	}
	if err := t.tableRepo.UpdateTableStatus(ctx, exec, tableID, models.TableStatusOccupied); err != nil {
		return nil, internalError(fmt.Sprintf("claiming table %d", tableID), err)
	}
	table.Status = models.TableStatusOccupied
	return table, nil
}

// Release makes the table available whatever its current status and reports
// whether the status actually changed.
func (t *TableTracker) Release(ctx context.Context, exec repositories.SQLExecutor, tableID int64) (bool, error) {
	table, err := t.lock(ctx, exec, tableID)
	if err != nil {
		return false, err
	}
	if table.Status == models.TableStatusAvailable {
		return false, nil
	}
	if err := t.tableRepo.UpdateTableStatus(ctx, exec, tableID, models.TableStatusAvailable); err != nil {
		return false, internalError(fmt.Sprintf("releasing table %d", tableID), err)
	}
	return true, nil
}

// Lock reads the table under a row lock without changing it.
func (t *TableTracker) Lock(ctx context.Context, exec repositories.SQLExecutor, tableID int64) (*models.Table, error) {
	return t.lock(ctx, exec, tableID)
}

func (t *TableTracker) lock(ctx context.Context, exec repositories.SQLExecutor, tableID int64) (*models.Table, error) {
	table, err := t.tableRepo.GetTableForUpdate(ctx, exec, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: table %d", ErrNotFound, tableID)
		}
		return nil, internalError(fmt.Sprintf("locking table %d", tableID), err)
	}
	return table, nil
}
