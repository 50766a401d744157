package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

var (
	orderStatuses = []string{
		models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusPreparing,
		models.OrderStatusReady, models.OrderStatusCompleted, models.OrderStatusCancelled,
	}
	paymentStatuses = []string{models.PaymentStatusUnpaid, models.PaymentStatusPaid, models.PaymentStatusRefunded}
)

// CreateOrder places an order for the authenticated user.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogDebug("CreateOrder: invalid payload", map[string]interface{}{"error": err.Error()})
		utils.RespondBindingError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err, "create order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders lists orders visible to the caller, newest first.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	q := newQueryParser(c)
	filters := models.OrderFilters{
		Status:        q.OneOf("status", orderStatuses...),
		PaymentStatus: q.OneOf("payment_status", paymentStatuses...),
		UserID:        q.Int64("user_id"),
		TableID:       q.Int64("table_id"),
		DateFrom:      q.Date("date_from", false),
		DateTo:        q.Date("date_to", true),
	}
	if q.Failed() {
		return
	}
	filters.Page, filters.PageSize = pagination(c)

	orders, total, err := h.orderService.GetOrders(c.Request.Context(), currentViewer(c), filters)
	if err != nil {
		respondServiceError(c, err, "fetch orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, paginated(orders, filters.Page, filters.PageSize, total))
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(c.Request.Context(), currentViewer(c), id)
	if err != nil {
		respondServiceError(c, err, "fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	actorID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), actorID, id, req.Status)
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	order, err := h.orderService.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus)
	if err != nil {
		respondServiceError(c, err, "update payment status")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	actorID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), actorID, id); err != nil {
		respondServiceError(c, err, "delete order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
