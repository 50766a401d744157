package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type stubOrderService struct {
	createdBy  int64
	created    models.CreateOrderRequest
	listViewer services.Viewer
	listFilter models.OrderFilters
	statusArgs [3]interface{}
	err        error
}

func (s *stubOrderService) CreateOrder(_ context.Context, userID int64, req models.CreateOrderRequest) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.createdBy, s.created = userID, req
	return &models.Order{ID: 1, OrderNumber: "ORD-20250724-0001", UserID: userID, Total: decimal.NewFromInt(55000)}, nil
}

func (s *stubOrderService) GetOrders(_ context.Context, viewer services.Viewer, filters models.OrderFilters) ([]models.Order, int, error) {
	s.listViewer, s.listFilter = viewer, filters
	return nil, 0, s.err
}

func (s *stubOrderService) GetOrderByID(_ context.Context, viewer services.Viewer, id int64) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{ID: id, UserID: viewer.UserID}, nil
}

func (s *stubOrderService) UpdateOrderStatus(_ context.Context, actorID, orderID int64, status string) (*models.Order, error) {
	s.statusArgs = [3]interface{}{actorID, orderID, status}
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{ID: orderID, Status: status}, nil
}

func (s *stubOrderService) UpdatePaymentStatus(_ context.Context, orderID int64, ps string) (*models.Order, error) {
	return &models.Order{ID: orderID, PaymentStatus: ps}, s.err
}

func (s *stubOrderService) DeleteOrder(context.Context, int64, int64) error { return s.err }

func orderRouter(svc services.OrderService, userID int64, role string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(utils.UserIDKey, userID)
		c.Set(utils.UserRoleKey, role)
		c.Next()
	})
	h := NewOrderHandler(svc)
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.GetOrders)
	r.GET("/orders/:id", h.GetOrderByID)
	r.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrderHandler(t *testing.T) {
	svc := &stubOrderService{}
	w := serve(orderRouter(svc, 7, models.RoleUser), http.MethodPost, "/orders",
		`{"table_id": 1, "items": [{"product_id": 3, "quantity": 2, "notes": "tanpa es"}]}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.createdBy != 7 || svc.created.TableID != 1 || len(svc.created.Items) != 1 || svc.created.Items[0].Quantity != 2 {
		t.Errorf("service got user %d, req %+v", svc.createdBy, svc.created)
	}
	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatal(err)
	}
	if order.OrderNumber != "ORD-20250724-0001" {
		t.Errorf("order number = %q", order.OrderNumber)
	}
}

func TestCreateOrderHandler_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "missingTable", body: `{"items": [{"product_id": 3, "quantity": 1}]}`, wantField: "table_id"},
		{name: "noItems", body: `{"table_id": 1, "items": []}`, wantField: "items"},
		{name: "zeroQuantity", body: `{"table_id": 1, "items": [{"product_id": 3, "quantity": 0}]}`, wantField: "items[0].quantity"},
		{name: "malformed", body: `{"table_id": "one"`, wantField: "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrderService{}
			w := serve(orderRouter(svc, 7, models.RoleUser), http.MethodPost, "/orders", tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
			if _, ok := decodeError(t, w).Error.Fields[tt.wantField]; !ok {
				t.Errorf("field %q missing in %s", tt.wantField, w.Body.String())
			}
			if svc.createdBy != 0 {
				t.Error("service called with invalid payload")
			}
		})
	}
}

func TestCreateOrderHandler_ServiceConflict(t *testing.T) {
	svc := &stubOrderService{err: services.ErrTableUnavailable}
	w := serve(orderRouter(svc, 7, models.RoleUser), http.MethodPost, "/orders",
		`{"table_id": 1, "items": [{"product_id": 3, "quantity": 1}]}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestGetOrdersHandler_Filters(t *testing.T) {
	svc := &stubOrderService{}
	w := serve(orderRouter(svc, 8, models.RoleCashier), http.MethodGet,
		"/orders?status=pending&payment_status=unpaid&date_from=2025-07-01&date_to=2025-07-24&page=2&page_size=500", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	f := svc.listFilter
	if f.Status == nil || *f.Status != models.OrderStatusPending || f.PaymentStatus == nil || *f.PaymentStatus != models.PaymentStatusUnpaid {
		t.Errorf("status filters = %v/%v", f.Status, f.PaymentStatus)
	}
	if f.DateTo == nil || f.DateTo.Hour() != 23 || f.DateFrom == nil || f.DateFrom.Day() != 1 {
		t.Errorf("date filters = %v/%v", f.DateFrom, f.DateTo)
	}
	if f.Page != 2 || f.PageSize != 100 {
		t.Errorf("page = %d/%d, want 2/100", f.Page, f.PageSize)
	}
	if svc.listViewer != (services.Viewer{UserID: 8, Role: models.RoleCashier}) {
		t.Errorf("viewer = %+v", svc.listViewer)
	}

	var body models.PaginatedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if data, ok := body.Data.([]interface{}); !ok || len(data) != 0 {
		t.Errorf("data = %#v, want empty list", body.Data)
	}
}

func TestGetOrdersHandler_BadQuery(t *testing.T) {
	svc := &stubOrderService{}
	w := serve(orderRouter(svc, 8, models.RoleCashier), http.MethodGet, "/orders?status=eaten&date_from=yesterday", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	fields := decodeError(t, w).Error.Fields
	if fields["status"] == "" || fields["date_from"] == "" {
		t.Errorf("fields = %v", fields)
	}
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	svc := &stubOrderService{}
	r := orderRouter(svc, 8, models.RoleCashier)

	w := serve(r, http.MethodPatch, "/orders/12/status", `{"status": "ready"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if svc.statusArgs != [3]interface{}{int64(8), int64(12), "ready"} {
		t.Errorf("service args = %v", svc.statusArgs)
	}

	if w := serve(r, http.MethodPatch, "/orders/abc/status", `{"status": "ready"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
	if w := serve(r, http.MethodPatch, "/orders/12/status", `{"status": "served"}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad status = %d, want 422", w.Code)
	}

	svc.err = services.ErrInvalidState
	if w := serve(r, http.MethodPatch, "/orders/12/status", `{"status": "pending"}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("terminal order status = %d, want 422", w.Code)
	}
}

func TestGetOrderByIDHandler_ForeignOrder(t *testing.T) {
	svc := &stubOrderService{err: services.ErrUnauthorized}
	w := serve(orderRouter(svc, 7, models.RoleUser), http.MethodGet, "/orders/5", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
