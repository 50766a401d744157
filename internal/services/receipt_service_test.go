package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

func newReceiptFixture(t *testing.T) (*store, *receiptService, string) {
	t.Helper()
	s := newStore()
	s.users[7] = models.User{ID: 7, Name: "Budi", Role: models.RoleUser, IsActive: true}
	s.tables[1] = models.Table{ID: 1, TableNumber: "T01", Status: models.TableStatusOccupied}
	tableID := int64(1)
	notes := "extra pedas"
	s.orders[40] = models.Order{
		ID: 40, OrderNumber: "ORD-20250724-0001", UserID: 7, TableID: &tableID,
		Subtotal: decimal.NewFromInt(50000), Tax: decimal.NewFromInt(5000), Total: decimal.NewFromInt(55000),
		Status: models.OrderStatusCompleted, PaymentStatus: models.PaymentStatusPaid,
		CreatedAt: time.Date(2025, 7, 24, 11, 0, 0, 0, time.UTC),
	}
	name := "Nasi Goreng"
	s.lines[40] = []models.OrderLine{{
		ID: 1, OrderID: 40, ProductID: 1, Position: 1, Quantity: 2,
		UnitPrice: decimal.NewFromInt(25000), LineTotal: decimal.NewFromInt(50000), Notes: &notes, ProductName: &name,
	}}
	restaurant := "Warung Makan Sederhana"
	s.settings[models.SettingRestaurantName] = models.ApplicationSetting{SettingKey: models.SettingRestaurantName, SettingValue: &restaurant}

	dir := t.TempDir()
	uow := &fakeUnitOfWork{s: s}
	svc := NewReceiptService(
		uow,
		&fakeReceiptRepo{s: s},
		&fakeOrderRepo{s: s},
		&fakeSequenceRepo{s: s},
		NewSettingService(uow, &fakeSettingRepo{s: s}),
		dir,
	).(*receiptService)
	svc.now = func() time.Time { return time.Date(2025, 7, 24, 13, 0, 0, 0, time.UTC) }
	return s, svc, dir
}

var cashierViewer = Viewer{UserID: 2, Role: models.RoleCashier}

func TestReceiptService_CreateReceipt(t *testing.T) {
	_, svc, dir := newReceiptFixture(t)
	ctx := context.Background()

	receipt, err := svc.CreateReceipt(ctx, models.CreateReceiptRequest{OrderID: 40})
	if err != nil {
		t.Fatalf("CreateReceipt() error = %v", err)
	}
	if receipt.ReceiptNumber != "RCP-20250724-0001" || receipt.FileType != models.ReceiptFileTypePDF {
		t.Errorf("receipt = %s/%s", receipt.ReceiptNumber, receipt.FileType)
	}
	data := receipt.ReceiptData
	if data.CustomerName != "Budi" || data.TableNumber == nil || *data.TableNumber != "T01" {
		t.Errorf("snapshot header = %+v", data)
	}
	if len(data.Items) != 1 || data.Items[0].Name != "Nasi Goreng" || !data.Items[0].Total.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("snapshot items = %+v", data.Items)
	}
	if !data.Total.Equal(decimal.NewFromInt(55000)) {
		t.Errorf("snapshot total = %s", data.Total)
	}
	if receipt.FilePath == nil {
		t.Fatal("file path not set")
	}
	if _, err := os.Stat(filepath.Join(dir, *receipt.FilePath)); err != nil {
		t.Errorf("receipt file missing: %v", err)
	}

	if _, err := svc.CreateReceipt(ctx, models.CreateReceiptRequest{OrderID: 40}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second receipt error = %v, want ErrInvalidState", err)
	}
	if _, err := svc.CreateReceipt(ctx, models.CreateReceiptRequest{OrderID: 41}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown order error = %v, want ErrValidation", err)
	}
}

func TestReceiptService_CreateReceiptReadsOrderInTransaction(t *testing.T) {
	_, svc, _ := newReceiptFixture(t)

	_, err := svc.CreateReceipt(context.Background(), models.CreateReceiptRequest{OrderID: 40})
	if errors.Is(err, errPoolReadInTx) {
		t.Fatalf("CreateReceipt() loaded the order outside its transaction: %v", err)
	}
	if err != nil {
		t.Fatalf("CreateReceipt() error = %v", err)
	}
}

func TestReceiptService_SnapshotIsFrozen(t *testing.T) {
	s, svc, _ := newReceiptFixture(t)
	ctx := context.Background()
	receipt, err := svc.CreateReceipt(ctx, models.CreateReceiptRequest{OrderID: 40})
	if err != nil {
		t.Fatal(err)
	}

	o := s.orders[40]
	o.Total = decimal.NewFromInt(1)
	s.orders[40] = o

	got, err := svc.GetReceiptByID(ctx, cashierViewer, receipt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.ReceiptData.Total.Equal(decimal.NewFromInt(55000)) {
		t.Errorf("snapshot total changed to %s", got.ReceiptData.Total)
	}
}

func TestReceiptService_DownloadRegeneratesMissingFile(t *testing.T) {
	_, svc, dir := newReceiptFixture(t)
	ctx := context.Background()
	receipt, err := svc.CreateReceipt(ctx, models.CreateReceiptRequest{OrderID: 40})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, *receipt.FilePath)); err != nil {
		t.Fatal(err)
	}

	file, err := svc.Download(ctx, Viewer{UserID: 7, Role: models.RoleUser}, receipt.ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if file.Filename != "RCP-20250724-0001.pdf" {
		t.Errorf("filename = %q", file.Filename)
	}
	if _, err := os.Stat(file.Path); err != nil {
		t.Errorf("regenerated file missing: %v", err)
	}

	if _, err := svc.Download(ctx, Viewer{UserID: 99, Role: models.RoleUser}, receipt.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("foreign download error = %v, want ErrUnauthorized", err)
	}
}

func TestReceiptService_DeleteReceipt(t *testing.T) {
	s, svc, dir := newReceiptFixture(t)
	ctx := context.Background()
	receipt, err := svc.CreateReceipt(ctx, models.CreateReceiptRequest{OrderID: 40})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteReceipt(ctx, receipt.ID); err != nil {
		t.Fatalf("DeleteReceipt() error = %v", err)
	}
	if len(s.receipts) != 0 {
		t.Error("receipt row still present")
	}
	if _, err := os.Stat(filepath.Join(dir, *receipt.FilePath)); !os.IsNotExist(err) {
		t.Errorf("receipt file still present: %v", err)
	}
	if err := svc.DeleteReceipt(ctx, receipt.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestReceiptService_Preview(t *testing.T) {
	s, svc, _ := newReceiptFixture(t)
	ctx := context.Background()

	preview, err := svc.Preview(ctx, cashierViewer, 40)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if preview.Header.RestaurantName != "Warung Makan Sederhana" {
		t.Errorf("header = %+v", preview.Header)
	}
	if preview.Data.OrderNumber != "ORD-20250724-0001" {
		t.Errorf("data = %+v", preview.Data)
	}
	if len(s.receipts) != 0 {
		t.Error("preview persisted a receipt")
	}
	if _, err := svc.Preview(ctx, Viewer{UserID: 99, Role: models.RoleUser}, 40); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("foreign preview error = %v, want ErrUnauthorized", err)
	}
}
