package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"
)

// TableService is the administrative side of dining tables. Occupancy driven
// by orders goes through TableTracker; manual changes are refused while a
// table carries open orders.
type TableService interface {
	GetTables(ctx context.Context, status *string) ([]models.Table, error)
	GetTableByID(ctx context.Context, id int64) (*models.Table, error)
	CreateTable(ctx context.Context, req models.CreateTableRequest) (*models.Table, error)
	UpdateTable(ctx context.Context, id int64, req models.UpdateTableRequest) (*models.Table, error)
	DeleteTable(ctx context.Context, id int64) error
	UpdateTableStatus(ctx context.Context, id int64, status string) (*models.Table, error)
}

type tableService struct {
	uow       repositories.UnitOfWork
	tableRepo repositories.TableRepository
	orderRepo repositories.OrderRepository
	tracker   *TableTracker
	publisher events.Publisher
}

// NewTableService creates a new instance of TableService.
func NewTableService(
	uow repositories.UnitOfWork,
	tr repositories.TableRepository,
	or repositories.OrderRepository,
	tracker *TableTracker,
	publisher events.Publisher,
) TableService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &tableService{uow: uow, tableRepo: tr, orderRepo: or, tracker: tracker, publisher: publisher}
}

func (s *tableService) GetTables(ctx context.Context, status *string) ([]models.Table, error) {
	if status != nil && !models.IsValidTableStatus(*status) {
		return nil, newValidationError(map[string]string{"status": "is not a valid table status"})
	}
	tables, err := s.tableRepo.GetTables(ctx, status)
	if err != nil {
		return nil, internalError("listing tables", err)
	}
	return tables, nil
}

func (s *tableService) GetTableByID(ctx context.Context, id int64) (*models.Table, error) {
	table, err := s.tableRepo.GetTableByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: table %d", ErrNotFound, id)
		}
		return nil, internalError("getting table", err)
	}
	return table, nil
}

func (s *tableService) CreateTable(ctx context.Context, req models.CreateTableRequest) (*models.Table, error) {
	if req.Capacity < 1 {
		return nil, newValidationError(map[string]string{"capacity": "must be at least 1"})
	}
	table := &models.Table{
		TableNumber: strings.TrimSpace(req.TableNumber),
		Capacity:    req.Capacity,
		Status:      models.TableStatusAvailable,
	}
	if req.Status != nil {
		if !models.IsValidTableStatus(*req.Status) {
			return nil, newValidationError(map[string]string{"status": "is not a valid table status"})
		}
		table.Status = *req.Status
	}
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.tableRepo.CreateTable(ctx, exec, table)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, newValidationError(map[string]string{"table_number": "has already been taken"})
		}
		return nil, internalError("creating table", err)
	}
	return table, nil
}

func (s *tableService) UpdateTable(ctx context.Context, id int64, req models.UpdateTableRequest) (*models.Table, error) {
	table, err := s.GetTableByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TableNumber != nil {
		table.TableNumber = strings.TrimSpace(*req.TableNumber)
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return nil, newValidationError(map[string]string{"capacity": "must be at least 1"})
		}
		table.Capacity = *req.Capacity
	}
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.tableRepo.UpdateTable(ctx, exec, table)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, newValidationError(map[string]string{"table_number": "has already been taken"})
		case errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("%w: table %d", ErrNotFound, id)
		}
		return nil, internalError("updating table", err)
	}
	return table, nil
}

func (s *tableService) DeleteTable(ctx context.Context, id int64) error {
	return s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		table, err := s.tracker.Lock(ctx, exec, id)
		if err != nil {
			return err
		}
		if err := s.refuseWithOpenOrders(ctx, exec, table); err != nil {
			return err
		}
		if err := s.tableRepo.DeleteTable(ctx, exec, id); err != nil {
			return internalError("deleting table", err)
		}
		return nil
	})
}

func (s *tableService) UpdateTableStatus(ctx context.Context, id int64, status string) (*models.Table, error) {
	if !models.IsValidTableStatus(status) {
		return nil, newValidationError(map[string]string{"status": "is not a valid table status"})
	}
	var table *models.Table
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tracker.Lock(ctx, exec, id)
		if err != nil {
			return err
		}
		if t.Status == status {
			table = t
			return nil
		}
		if err := s.refuseWithOpenOrders(ctx, exec, t); err != nil {
			return err
		}
		if err := s.tableRepo.UpdateTableStatus(ctx, exec, id, status); err != nil {
			return internalError("updating table status", err)
		}
		t.Status = status
		table = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.SubjectTableStatus, events.TableStatusEvent{
		TableID: table.ID, Status: table.Status, OccurredAt: time.Now(),
	}); err != nil {
		utils.LogWarn(err, "Publishing event failed", map[string]interface{}{"subject": events.SubjectTableStatus})
	}
	return table, nil
}

func (s *tableService) refuseWithOpenOrders(ctx context.Context, exec repositories.SQLExecutor, table *models.Table) error {
	open, err := s.orderRepo.CountOpenOrdersForTable(ctx, exec, table.ID)
	if err != nil {
		return internalError("counting open orders of table", err)
	}
	if open > 0 {
		return fmt.Errorf("%w: table %s has %d open orders", ErrInvalidState, table.TableNumber, open)
	}
	return nil
}
