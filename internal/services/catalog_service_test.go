package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

func newCatalogFixture(t *testing.T) (*store, CatalogService, string) {
	t.Helper()
	s := newStore()
	s.categories[1] = models.Category{ID: 1, Name: "Makanan Utama", IsActive: true}
	s.categories[2] = models.Category{ID: 2, Name: "Dessert", IsActive: false}
	s.products[10] = models.Product{ID: 10, CategoryID: 1, Name: "Nasi Goreng", Price: decimal.NewFromInt(25000), Stock: 10, IsAvailable: true}
	dir := t.TempDir()
	productRepo := &fakeProductRepo{s: s}
	movementRepo := &fakeMovementRepo{s: s}
	svc := NewCatalogService(
		&fakeUnitOfWork{s: s},
		&fakeCategoryRepo{s: s},
		productRepo,
		movementRepo,
		NewInventoryLedger(productRepo, movementRepo),
		dir,
	)
	return s, svc, dir
}

func TestCatalogService_Categories(t *testing.T) {
	s, svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	active, err := svc.GetCategories(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Name != "Makanan Utama" {
		t.Errorf("active categories = %+v", active)
	}

	category, err := svc.GetCategoryByID(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(category.Products) != 1 {
		t.Errorf("category products = %d, want 1", len(category.Products))
	}

	if err := svc.DeleteCategory(ctx, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("delete category with products error = %v, want ErrInvalidState", err)
	}
	if err := svc.DeleteCategory(ctx, 2); err != nil {
		t.Errorf("DeleteCategory() error = %v", err)
	}
	if _, ok := s.categories[2]; ok {
		t.Error("category 2 still present")
	}
	if err := svc.DeleteCategory(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing category error = %v, want ErrNotFound", err)
	}

	if _, err := svc.CreateCategory(ctx, models.CategoryRequest{Name: "Makanan Utama"}); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate category error = %v, want ErrValidation", err)
	}
}

func TestCatalogService_CreateProductRecordsInitialStock(t *testing.T) {
	s, svc, _ := newCatalogFixture(t)
	price := decimal.NewFromInt(8000)

	product, err := svc.CreateProduct(context.Background(), 1, models.CreateProductRequest{
		CategoryID: 1, Name: "Es Jeruk", Price: &price, Stock: 20,
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if !product.IsAvailable || product.Stock != 20 {
		t.Errorf("product = %+v", product)
	}
	if product.CategoryName == nil || *product.CategoryName != "Makanan Utama" {
		t.Errorf("category name = %v", product.CategoryName)
	}
	if len(s.movements) != 1 || s.movements[0].QuantityChanged != 20 || s.movements[0].MovementType != models.MovementTypeAdjustment {
		t.Errorf("movements = %+v", s.movements)
	}

	negative := decimal.NewFromInt(-1)
	if _, err := svc.CreateProduct(context.Background(), 1, models.CreateProductRequest{CategoryID: 1, Name: "Bad", Price: &negative}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative price error = %v, want ErrValidation", err)
	}
}

func TestCatalogService_UpdateStock(t *testing.T) {
	s, svc, _ := newCatalogFixture(t)
	stock := 25

	product, err := svc.UpdateStock(context.Background(), 1, 10, models.UpdateStockRequest{Stock: &stock})
	if err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}
	if product.Stock != 25 {
		t.Errorf("stock = %d, want 25", product.Stock)
	}
	if len(s.movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(s.movements))
	}
	m := s.movements[0]
	if m.QuantityChanged != 15 || m.StockAfter != 25 || m.Reason == nil || *m.Reason != "Manual stock update" {
		t.Errorf("movement = %+v", m)
	}

	if _, err := svc.UpdateStock(context.Background(), 1, 99, models.UpdateStockRequest{Stock: &stock}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown product error = %v, want ErrNotFound", err)
	}
}

func TestCatalogService_ToggleAvailability(t *testing.T) {
	_, svc, _ := newCatalogFixture(t)
	product, err := svc.ToggleAvailability(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if product.IsAvailable {
		t.Error("product still available")
	}
}

func TestCatalogService_UploadImage(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{name: "png", filename: "photo.PNG", size: 4},
		{name: "jpeg", filename: "photo.jpeg", size: 4},
		{name: "wrongType", filename: "photo.bmp", size: 4, wantErr: ErrValidation},
		{name: "tooLarge", filename: "photo.jpg", size: MaxImageSize + 1, wantErr: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, svc, dir := newCatalogFixture(t)

			product, err := svc.UploadImage(context.Background(), 10, tt.filename, tt.size, strings.NewReader("data"))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UploadImage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UploadImage() error = %v", err)
			}
			if product.Image == nil || !strings.HasPrefix(*product.Image, "products/") {
				t.Fatalf("image = %v", product.Image)
			}
			content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(*product.Image)))
			if err != nil || string(content) != "data" {
				t.Errorf("stored file = %q, %v", content, err)
			}
		})
	}
}

func TestCatalogService_UploadImageReplacesOldFile(t *testing.T) {
	_, svc, dir := newCatalogFixture(t)
	ctx := context.Background()

	first, err := svc.UploadImage(ctx, 10, "a.png", 1, strings.NewReader("a"))
	if err != nil {
		t.Fatal(err)
	}
	oldPath := filepath.Join(dir, filepath.FromSlash(*first.Image))
	if _, err := svc.UploadImage(ctx, 10, "b.png", 1, strings.NewReader("b")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Errorf("old image still on disk: %v", err)
	}
}
