package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestWrapDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "unique", err: &pq.Error{Code: "23505"}, want: ErrDuplicateKey},
		{name: "foreignKey", err: &pq.Error{Code: "23503"}, want: ErrReferenced},
		{name: "otherPq", err: &pq.Error{Code: "42P01"}, want: ErrDatabaseError},
		{name: "plain", err: errors.New("connection reset"), want: ErrDatabaseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapDBError(tt.err, "doing things")
			if !errors.Is(got, tt.want) {
				t.Errorf("wrapDBError() = %v, want %v", got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("driver error dropped from chain: %v", got)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&pq.Error{Code: "40001"}, true},
		{&pq.Error{Code: "40P01"}, true},
		{wrapDBError(&pq.Error{Code: "40001"}, "committing"), true},
		{&pq.Error{Code: "23505"}, false},
		{errors.New("boom"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		page, size            int
		wantLimit, wantOffset int
	}{
		{1, 15, 15, 0},
		{3, 10, 10, 20},
		{0, 0, 15, 0},
		{2, 1000, 100, 100},
	}
	for _, tt := range tests {
		limit, offset := pageBounds(tt.page, tt.size, 15)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("pageBounds(%d, %d) = %d, %d; want %d, %d", tt.page, tt.size, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestUnitOfWork_RetriesSerializationFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err := NewUnitOfWork(db).Do(context.Background(), func(SQLExecutor) error {
		attempts++
		if attempts == 1 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestUnitOfWork_GivesUpAfterMaxAttempts(t *testing.T) {
	db, mock := newMock(t)
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	attempts := 0
	err := NewUnitOfWork(db).Do(context.Background(), func(SQLExecutor) error {
		attempts++
		return &pq.Error{Code: "40P01"}
	})
	if !IsRetryable(err) || attempts != 3 {
		t.Errorf("Do() = %v after %d attempts", err, attempts)
	}
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("line 2 failed")
	attempts := 0
	err := NewUnitOfWork(db).Do(context.Background(), func(exec SQLExecutor) error {
		attempts++
		if _, err := exec.ExecContext(context.Background(), "UPDATE products SET stock = 1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) || attempts != 1 {
		t.Errorf("Do() = %v after %d attempts", err, attempts)
	}
}

func TestUnitOfWork_CommitFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection lost"))

	err := NewUnitOfWork(db).Do(context.Background(), func(SQLExecutor) error { return nil })
	if !errors.Is(err, ErrDatabaseError) {
		t.Errorf("Do() = %v, want ErrDatabaseError", err)
	}
}

func TestSequenceRepository_Next(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (scope, seq_date)")).
		WithArgs(SequenceScopeOrder, "2025-07-24").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(3))

	day := time.Date(2025, 7, 24, 18, 30, 0, 0, time.UTC)
	got, err := NewSequenceRepository(db).Next(context.Background(), db, SequenceScopeOrder, day)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != 3 {
		t.Errorf("Next() = %d, want 3", got)
	}
}

var productRowColumns = []string{"id", "category_id", "name", "description", "price", "stock", "is_available", "image", "created_at", "updated_at"}

func TestProductRepository_LockProducts(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE p.id = ANY\(\$1\)\s+ORDER BY p.id\s+FOR UPDATE`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(1, 1, "Nasi Ayam Bakar", nil, "25000.00", 50, true, nil, now, now).
			AddRow(5, 2, "Es Teh Manis", "Teh manis dingin", "5000.00", 0, true, nil, now, now))

	locked, err := NewProductRepository(db).LockProducts(context.Background(), db, []int64{5, 1, 9})
	if err != nil {
		t.Fatalf("LockProducts() error = %v", err)
	}
	if len(locked) != 2 {
		t.Fatalf("locked %d products, want 2", len(locked))
	}
	if p := locked[1]; p.Name != "Nasi Ayam Bakar" || !p.Price.Equal(decimal.NewFromInt(25000)) || p.Stock != 50 {
		t.Errorf("product 1 = %+v", p)
	}
	if _, ok := locked[9]; ok {
		t.Error("unknown product 9 present")
	}
}

func TestProductRepository_DecrementStock(t *testing.T) {
	tests := []struct {
		name      string
		rows      *sqlmock.Rows
		wantStock int
		wantErr   error
	}{
		{name: "enoughStock", rows: sqlmock.NewRows([]string{"stock"}).AddRow(7), wantStock: 7},
		{name: "guardRejects", rows: sqlmock.NewRows([]string{"stock"}), wantErr: ErrConditionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $2 AND stock >= $1 RETURNING stock")).
				WithArgs(3, int64(1)).
				WillReturnRows(tt.rows)

			got, err := NewProductRepository(db).DecrementStock(context.Background(), db, 1, 3)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecrementStock() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.wantStock {
				t.Errorf("DecrementStock() = %d, want %d", got, tt.wantStock)
			}
		})
	}
}

func TestOrderRepository_CreateOrder(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)
	tableID := int64(2)
	order := &models.Order{
		OrderNumber:   "ORD-20250724-0001",
		UserID:        7,
		TableID:       &tableID,
		Subtotal:      decimal.NewFromInt(50000),
		Tax:           decimal.NewFromInt(5000),
		Total:         decimal.NewFromInt(55000),
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
	}

	mock.ExpectQuery("INSERT INTO orders").
		WithArgs("ORD-20250724-0001", int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			models.OrderStatusPending, models.PaymentStatusUnpaid, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(41, now, now))

	if err := NewOrderRepository(db).CreateOrder(context.Background(), db, order); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.ID != 41 || !order.CreatedAt.Equal(now) {
		t.Errorf("order = %d created %s", order.ID, order.CreatedAt)
	}
}

func TestOrderRepository_CreateOrderDuplicateNumber(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO orders").WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_order_number_key"})

	err := NewOrderRepository(db).CreateOrder(context.Background(), db, &models.Order{OrderNumber: "ORD-20250724-0001"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("CreateOrder() error = %v, want ErrDuplicateKey", err)
	}
}

func TestOrderRepository_LoadOrderUsesTransaction(t *testing.T) {
	db, mock := newMock(t)
	db.SetMaxOpenConns(1)
	now := time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_number", "user_id", "table_id", "subtotal", "tax", "total",
			"status", "payment_status", "notes", "completed_at", "created_at", "updated_at",
			"name", "table_number",
		}).AddRow(1, "ORD-20250724-0001", 7, 2, "50000.00", "5000.00", "55000.00",
			models.OrderStatusPending, models.PaymentStatusUnpaid, nil, nil, now, now,
			"Budi", "T01"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_lines ol")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "position", "quantity", "unit_price", "line_total", "notes", "created_at", "name",
		}).AddRow(10, 1, 3, 1, 2, "25000.00", "50000.00", nil, now, "Nasi Goreng"))
	mock.ExpectCommit()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	order, err := NewOrderRepository(db).LoadOrder(ctx, tx, 1)
	if err != nil {
		t.Fatalf("LoadOrder() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if order.OrderNumber != "ORD-20250724-0001" || len(order.Lines) != 1 || *order.Lines[0].ProductName != "Nasi Goreng" {
		t.Errorf("order = %+v", order)
	}
	if !order.Total.Equal(decimal.NewFromInt(55000)) {
		t.Errorf("total = %s, want 55000", order.Total)
	}
}

func TestUserRepository_DeleteUserWithOrders(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "orders_user_id_fkey"})

	err := NewUserRepository(db).DeleteUser(context.Background(), db, 7)
	if !errors.Is(err, ErrReferenced) {
		t.Errorf("DeleteUser() error = %v, want ErrReferenced", err)
	}
}
