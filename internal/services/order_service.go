package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/telemetry"
	"restaurant_pos_backend/pkg/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// allowedTransitions lists, per open status, the statuses an order may move
// to. Open statuses move freely among each other; completed and cancelled are
// final. Re-applying the current status is always a no-op.
var allowedTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusPreparing, models.OrderStatusReady, models.OrderStatusCompleted, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPending, models.OrderStatusPreparing, models.OrderStatusReady, models.OrderStatusCompleted, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusReady, models.OrderStatusCompleted, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusPreparing, models.OrderStatusCompleted, models.OrderStatusCancelled},
}

func canTransition(from, to string) bool {
	if models.IsTerminalOrderStatus(from) {
		return false
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderService is the order workflow: creation, lifecycle transitions,
// deletion and the scoped read path.
type OrderService interface {
	CreateOrder(ctx context.Context, userID int64, req models.CreateOrderRequest) (*models.Order, error)
	GetOrders(ctx context.Context, viewer Viewer, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(ctx context.Context, viewer Viewer, orderID int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, actorID, orderID int64, status string) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatus string) (*models.Order, error)
	DeleteOrder(ctx context.Context, actorID, orderID int64) error
}

type orderService struct {
	uow       repositories.UnitOfWork
	orderRepo repositories.OrderRepository
	sequences repositories.SequenceRepository
	ledger    *InventoryLedger
	tables    *TableTracker
	publisher events.Publisher
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	uow repositories.UnitOfWork,
	or repositories.OrderRepository,
	sr repositories.SequenceRepository,
	ledger *InventoryLedger,
	tables *TableTracker,
	publisher events.Publisher,
) OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &orderService{
		uow:       uow,
		orderRepo: or,
		sequences: sr,
		ledger:    ledger,
		tables:    tables,
		publisher: publisher,
		tracer:    telemetry.Tracer(),
		now:       time.Now,
	}
}

func validateCreateOrder(req models.CreateOrderRequest) error {
	fields := map[string]string{}
	if req.TableID <= 0 {
		fields["table_id"] = "is required"
	}
	if len(req.Items) == 0 {
		fields["items"] = "must contain at least one item"
	}
	for i, item := range req.Items {
		if item.ProductID <= 0 {
			fields[fmt.Sprintf("items[%d].product_id", i)] = "is required"
		}
		if item.Quantity < 1 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be at least 1"
		}
	}
	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

// formatDailyNumber renders numbers such as ORD-20250724-0001.
func formatDailyNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}

func (s *orderService) CreateOrder(ctx context.Context, userID int64, req models.CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "order.create", trace.WithAttributes(
		attribute.Int64("table.id", req.TableID),
		attribute.Int("order.line_count", len(req.Items)),
	))
	defer span.End()

	var order *models.Order
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		order = nil

		if _, err := s.tables.Claim(ctx, exec, req.TableID); err != nil {
			return err
		}

		productIDs := make([]int64, len(req.Items))
		for i, item := range req.Items {
			productIDs[i] = item.ProductID
		}
		products, err := s.ledger.LockProducts(ctx, exec, productIDs)
		if err != nil {
			return err
		}

		priced := make([]PricedLine, 0, len(req.Items))
		lines := make([]models.OrderLine, 0, len(req.Items))
		stockAfter := make([]int, 0, len(req.Items))
		for i, item := range req.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return fmt.Errorf("%w: product %d", ErrNotFound, item.ProductID)
			}
			if err := s.ledger.Reserve(ctx, exec, product, item.Quantity); err != nil {
				return err
			}
			name := product.Name
			priced = append(priced, PricedLine{UnitPrice: product.Price, Quantity: item.Quantity})
			lines = append(lines, models.OrderLine{
				ProductID:   product.ID,
				Position:    i + 1,
				Quantity:    item.Quantity,
				UnitPrice:   product.Price,
				LineTotal:   LineTotal(product.Price, item.Quantity),
				Notes:       utils.NewNullString(utils.DerefString(item.Notes)),
				ProductName: &name,
			})
			stockAfter = append(stockAfter, product.Stock)
		}

		totals := PriceLines(priced)
		now := s.now()
		seq, err := s.sequences.Next(ctx, exec, repositories.SequenceScopeOrder, now)
		if err != nil {
			return internalError("allocating order number", err)
		}

		tableID := req.TableID
		created := &models.Order{
			OrderNumber:   formatDailyNumber("ORD", now, seq),
			UserID:        userID,
			TableID:       &tableID,
			Subtotal:      totals.Subtotal,
			Tax:           totals.Tax,
			Total:         totals.Total,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusUnpaid,
			Notes:         utils.NewNullString(utils.DerefString(req.Notes)),
		}
		if err := s.orderRepo.CreateOrder(ctx, exec, created); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				utils.LogError(err, "Order number collision", map[string]interface{}{"order_number": created.OrderNumber})
			}
			return internalError("creating order", err)
		}

		for i := range lines {
			lines[i].OrderID = created.ID
			if err := s.orderRepo.CreateOrderLine(ctx, exec, &lines[i]); err != nil {
				return internalError("creating order line", err)
			}
			change := StockChange{
				UserID:       &userID,
				OrderID:      &created.ID,
				MovementType: models.MovementTypeSale,
				Reason:       "Order " + created.OrderNumber,
			}
			if err := s.ledger.Record(ctx, exec, lines[i].ProductID, -lines[i].Quantity, stockAfter[i], change); err != nil {
				return err
			}
		}
		created.Lines = lines
		order = created
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.String("order.number", order.OrderNumber))
	utils.LogInfo("Order created", map[string]interface{}{
		"order_id": order.ID, "order_number": order.OrderNumber, "table_id": req.TableID, "total": order.Total.String(),
	})

	s.publish(ctx, events.SubjectTableStatus, events.TableStatusEvent{
		TableID: req.TableID, Status: models.TableStatusOccupied, OrderID: &order.ID, OccurredAt: s.now(),
	})
	s.publish(ctx, events.SubjectOrderCreated, s.orderEvent(order, ""))

	return s.reload(ctx, order), nil
}

func (s *orderService) GetOrders(ctx context.Context, viewer Viewer, filters models.OrderFilters) ([]models.Order, int, error) {
	if !viewer.CanViewAll() {
		uid := viewer.UserID
		filters.UserID = &uid
	}
	if filters.Status != nil && !models.IsValidOrderStatus(*filters.Status) {
		return nil, 0, newValidationError(map[string]string{"status": "is not a valid order status"})
	}
	if filters.PaymentStatus != nil && !models.IsValidPaymentStatus(*filters.PaymentStatus) {
		return nil, 0, newValidationError(map[string]string{"payment_status": "is not a valid payment status"})
	}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateTo.Before(*filters.DateFrom) {
		return nil, 0, newValidationError(map[string]string{"date_to": "must not be before date_from"})
	}

	orders, totalCount, err := s.orderRepo.GetOrders(ctx, filters)
	if err != nil {
		return nil, 0, internalError("listing orders", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, viewer Viewer, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, internalError("getting order", err)
	}
	if !viewer.CanSee(order.UserID) {
		return nil, fmt.Errorf("%w: order %d belongs to another user", ErrUnauthorized, orderID)
	}
	return order, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, actorID, orderID int64, status string) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, newValidationError(map[string]string{"status": "is not a valid order status"})
	}

	ctx, span := s.tracer.Start(ctx, "order.transition_status", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.target_status", status),
	))
	defer span.End()

	var before, after *models.Order
	var releasedTable bool
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		before, after, releasedTable = nil, nil, false

		order, err := s.lockOrder(ctx, exec, orderID)
		if err != nil {
			return err
		}
		snapshot := *order
		before = &snapshot
		if order.Status == status {
			after = order
			return nil
		}
		if !canTransition(order.Status, status) {
			return fmt.Errorf("%w: order %s is %s and cannot become %s", ErrInvalidState, order.OrderNumber, order.Status, status)
		}

		switch status {
		case models.OrderStatusCompleted:
			now := s.now()
			order.CompletedAt = &now
			order.PaymentStatus = models.PaymentStatusPaid
			if order.TableID != nil {
				if releasedTable, err = s.tables.Release(ctx, exec, *order.TableID); err != nil {
					return err
				}
			}
		case models.OrderStatusCancelled:
			if order.TableID != nil {
				if releasedTable, err = s.tables.Release(ctx, exec, *order.TableID); err != nil {
					return err
				}
			}
			if err := s.restoreStock(ctx, exec, order, actorID, models.MovementTypeOrderCancelled); err != nil {
				return err
			}
		}

		order.Status = status
		if err := s.orderRepo.UpdateOrderStatus(ctx, exec, order.ID, order.Status, order.PaymentStatus, order.CompletedAt); err != nil {
			return internalError("updating order status", err)
		}
		after = order
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	if before.Status != after.Status {
		utils.LogInfo("Order status changed", map[string]interface{}{
			"order_id": after.ID, "order_number": after.OrderNumber, "from": before.Status, "to": after.Status,
		})
		s.publish(ctx, events.SubjectOrderStatusChanged, s.orderEvent(after, before.Status))
		if releasedTable {
			s.publish(ctx, events.SubjectTableStatus, events.TableStatusEvent{
				TableID: *after.TableID, Status: models.TableStatusAvailable, OrderID: &after.ID, OccurredAt: s.now(),
			})
		}
	}
	return s.reload(ctx, after), nil
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, orderID int64, paymentStatus string) (*models.Order, error) {
	if !models.IsValidPaymentStatus(paymentStatus) {
		return nil, newValidationError(map[string]string{"payment_status": "is not a valid payment status"})
	}

	ctx, span := s.tracer.Start(ctx, "order.update_payment", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.payment_status", paymentStatus),
	))
	defer span.End()

	var order *models.Order
	var previous string
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		o, err := s.lockOrder(ctx, exec, orderID)
		if err != nil {
			return err
		}
		previous = o.PaymentStatus
		if o.PaymentStatus != paymentStatus {
			if err := s.orderRepo.UpdatePaymentStatus(ctx, exec, orderID, paymentStatus); err != nil {
				return internalError("updating payment status", err)
			}
			o.PaymentStatus = paymentStatus
		}
		order = o
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	if previous != paymentStatus {
		utils.LogInfo("Order payment status changed", map[string]interface{}{
			"order_id": order.ID, "order_number": order.OrderNumber, "from": previous, "to": paymentStatus,
		})
		s.publish(ctx, events.SubjectOrderPaymentChanged, s.orderEvent(order, ""))
	}
	return s.reload(ctx, order), nil
}

func (s *orderService) DeleteOrder(ctx context.Context, actorID, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "order.delete", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var deleted *models.Order
	var releasedTable bool
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		deleted, releasedTable = nil, false

		order, err := s.lockOrder(ctx, exec, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusCancelled {
			return fmt.Errorf("%w: order %s is %s; only pending or cancelled orders can be deleted", ErrInvalidState, order.OrderNumber, order.Status)
		}

		if order.TableID != nil {
			if releasedTable, err = s.releaseTableOnDelete(ctx, exec, order); err != nil {
				return err
			}
		}
		// Cancelled orders had their stock restored at cancellation.
		if order.Status == models.OrderStatusPending {
			if err := s.restoreStock(ctx, exec, order, actorID, models.MovementTypeOrderDeleted); err != nil {
				return err
			}
		}

		if err := s.orderRepo.DeleteOrderLines(ctx, exec, order.ID); err != nil {
			return internalError("deleting order lines", err)
		}
		if err := s.orderRepo.DeleteOrder(ctx, exec, order.ID); err != nil {
			return internalError("deleting order", err)
		}
		deleted = order
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return err
	}

	utils.LogInfo("Order deleted", map[string]interface{}{"order_id": deleted.ID, "order_number": deleted.OrderNumber})
	s.publish(ctx, events.SubjectOrderDeleted, s.orderEvent(deleted, ""))
	if releasedTable {
		s.publish(ctx, events.SubjectTableStatus, events.TableStatusEvent{
			TableID: *deleted.TableID, Status: models.TableStatusAvailable, OccurredAt: s.now(),
		})
	}
	return nil
}

// releaseTableOnDelete frees an occupied table. For a cancelled order the
// table was already released and may since have been claimed by another
// order, which keeps it.
func (s *orderService) releaseTableOnDelete(ctx context.Context, exec repositories.SQLExecutor, order *models.Order) (bool, error) {
	table, err := s.tables.Lock(ctx, exec, *order.TableID)
	if err != nil {
		return false, err
	}
	if table.Status != models.TableStatusOccupied {
		return false, nil
	}
	if order.Status == models.OrderStatusCancelled {
		open, err := s.orderRepo.CountOpenOrdersForTable(ctx, exec, table.ID)
		if err != nil {
			return false, internalError("counting open orders of table", err)
		}
		if open > 0 {
			return false, nil
		}
	}
	return s.tables.Release(ctx, exec, table.ID)
}

func (s *orderService) restoreStock(ctx context.Context, exec repositories.SQLExecutor, order *models.Order, actorID int64, movementType string) error {
	lines, err := s.orderRepo.GetOrderLines(ctx, exec, order.ID)
	if err != nil {
		return internalError("loading order lines", err)
	}
	return s.ledger.ReleaseLines(ctx, exec, lines, StockChange{
		UserID:       &actorID,
		OrderID:      &order.ID,
		MovementType: movementType,
		Reason:       "Order " + order.OrderNumber + " " + movementType,
	})
}

func (s *orderService) lockOrder(ctx context.Context, exec repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, internalError("locking order", err)
	}
	return order, nil
}

// reload returns the committed order with its associations resolved. The
// in-memory copy is returned when the read fails, since the write succeeded.
func (s *orderService) reload(ctx context.Context, order *models.Order) *models.Order {
	full, err := s.orderRepo.GetOrderByID(ctx, order.ID)
	if err != nil {
		utils.LogWarn(err, "Reloading order after commit failed", map[string]interface{}{"order_id": order.ID})
		return order
	}
	return full
}

func (s *orderService) orderEvent(o *models.Order, previousStatus string) events.OrderEvent {
	return events.OrderEvent{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		TableID:        o.TableID,
		Status:         o.Status,
		PreviousStatus: previousStatus,
		PaymentStatus:  o.PaymentStatus,
		Total:          o.Total,
		OccurredAt:     s.now(),
	}
}

// publish is best effort: the mutation is already committed.
func (s *orderService) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		utils.LogWarn(err, "Publishing event failed", map[string]interface{}{"subject": subject})
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
