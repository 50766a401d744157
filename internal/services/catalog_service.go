package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted product image.
const MaxImageSize = 2 << 20

var allowedImageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// CatalogService manages categories, products and their stock.
type CatalogService interface {
	// Category methods
	GetCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, req models.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	// Product methods
	GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, actorID int64, req models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ToggleAvailability(ctx context.Context, id int64) (*models.Product, error)
	UpdateStock(ctx context.Context, actorID, id int64, req models.UpdateStockRequest) (*models.Product, error)
	UploadImage(ctx context.Context, id int64, filename string, size int64, src io.Reader) (*models.Product, error)

	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type catalogService struct {
	uow          repositories.UnitOfWork
	categoryRepo repositories.CategoryRepository
	productRepo  repositories.ProductRepository
	movementRepo repositories.InventoryMovementRepository
	ledger       *InventoryLedger
	uploadDir    string
}

// NewCatalogService creates a new instance of CatalogService. Product images
// are stored below uploadDir.
func NewCatalogService(
	uow repositories.UnitOfWork,
	cr repositories.CategoryRepository,
	pr repositories.ProductRepository,
	mr repositories.InventoryMovementRepository,
	ledger *InventoryLedger,
	uploadDir string,
) CatalogService {
	return &catalogService{
		uow:          uow,
		categoryRepo: cr,
		productRepo:  pr,
		movementRepo: mr,
		ledger:       ledger,
		uploadDir:    uploadDir,
	}
}

// --- Categories ---

func (s *catalogService) GetCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	categories, err := s.categoryRepo.GetCategories(ctx, activeOnly)
	if err != nil {
		return nil, internalError("listing categories", err)
	}
	return categories, nil
}

func (s *catalogService) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: category %d", ErrNotFound, id)
		}
		return nil, internalError("getting category", err)
	}
	products, _, err := s.productRepo.GetProducts(ctx, models.ProductFilters{CategoryID: &id, PageSize: 100})
	if err != nil {
		return nil, internalError("listing category products", err)
	}
	category.Products = products
	return category, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.categoryRepo.CreateCategory(ctx, exec, category)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, newValidationError(map[string]string{"name": "has already been taken"})
		}
		return nil, internalError("creating category", err)
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id int64, req models.CategoryRequest) (*models.Category, error) {
	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: category %d", ErrNotFound, id)
		}
		return nil, internalError("getting category", err)
	}
	category.Name = strings.TrimSpace(req.Name)
	category.Description = req.Description
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.categoryRepo.UpdateCategory(ctx, exec, category)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, newValidationError(map[string]string{"name": "has already been taken"})
		}
		return nil, internalError("updating category", err)
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		count, err := s.categoryRepo.CountProducts(ctx, exec, id)
		if err != nil {
			return internalError("counting category products", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: category %d still has %d products", ErrInvalidState, id, count)
		}
		if err := s.categoryRepo.DeleteCategory(ctx, exec, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: category %d", ErrNotFound, id)
			}
			return internalError("deleting category", err)
		}
		return nil
	})
	return err
}

// --- Products ---

func (s *catalogService) GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	products, total, err := s.productRepo.GetProducts(ctx, filters)
	if err != nil {
		return nil, 0, internalError("listing products", err)
	}
	return products, total, nil
}

func (s *catalogService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, internalError("getting product", err)
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, actorID int64, req models.CreateProductRequest) (*models.Product, error) {
	if req.Price == nil || req.Price.IsNegative() {
		return nil, newValidationError(map[string]string{"price": "must be greater than or equal to 0"})
	}
	if req.Stock < 0 {
		return nil, newValidationError(map[string]string{"stock": "must be greater than or equal to 0"})
	}
	product := &models.Product{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       *req.Price,
		Stock:       req.Stock,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.productRepo.CreateProduct(ctx, exec, product); err != nil {
			return err
		}
		if product.Stock == 0 {
			return nil
		}
		return s.ledger.Record(ctx, exec, product.ID, product.Stock, product.Stock, StockChange{
			UserID:       &actorID,
			MovementType: models.MovementTypeAdjustment,
			Reason:       "Initial stock",
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrReferenced) {
			return nil, newValidationError(map[string]string{"category_id": "does not exist"})
		}
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, internalError("creating product", err)
	}
	return s.GetProductByID(ctx, product.ID)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, newValidationError(map[string]string{"price": "must be greater than or equal to 0"})
		}
		product.Price = *req.Price
	}
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.productRepo.UpdateProduct(ctx, exec, product)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrReferenced):
			return nil, newValidationError(map[string]string{"category_id": "does not exist"})
		case errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, internalError("updating product", err)
	}
	return s.GetProductByID(ctx, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.productRepo.DeleteProduct(ctx, exec, id)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		case errors.Is(err, repositories.ErrReferenced):
			return fmt.Errorf("%w: product %d appears on orders; mark it unavailable instead", ErrInvalidState, id)
		}
		return internalError("deleting product", err)
	}
	if product.Image != nil {
		s.removeImage(*product.Image)
	}
	return nil
}

func (s *catalogService) ToggleAvailability(ctx context.Context, id int64) (*models.Product, error) {
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		_, err := s.productRepo.ToggleAvailability(ctx, exec, id)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, internalError("toggling product availability", err)
	}
	return s.GetProductByID(ctx, id)
}

func (s *catalogService) UpdateStock(ctx context.Context, actorID, id int64, req models.UpdateStockRequest) (*models.Product, error) {
	if req.Stock == nil {
		return nil, newValidationError(map[string]string{"stock": "is required"})
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Manual stock update"
	}
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.ledger.SetStock(ctx, exec, id, *req.Stock, StockChange{
			UserID:       &actorID,
			MovementType: models.MovementTypeAdjustment,
			Reason:       reason,
		})
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Product stock set", map[string]interface{}{"product_id": id, "stock": *req.Stock, "user_id": actorID})
	return s.GetProductByID(ctx, id)
}

func (s *catalogService) UploadImage(ctx context.Context, id int64, filename string, size int64, src io.Reader) (*models.Product, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return nil, newValidationError(map[string]string{"image": "must be a jpeg, png or gif file"})
	}
	if size > MaxImageSize {
		return nil, newValidationError(map[string]string{"image": "may not be greater than 2048 kilobytes"})
	}
	product, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	relPath := filepath.ToSlash(filepath.Join("products", uuid.NewString()+ext))
	if err := s.writeImage(relPath, src); err != nil {
		return nil, internalError("storing product image", err)
	}
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.productRepo.SetImage(ctx, exec, id, relPath)
	})
	if err != nil {
		s.removeImage(relPath)
		return nil, internalError("saving product image", err)
	}
	if product.Image != nil {
		s.removeImage(*product.Image)
	}
	return s.GetProductByID(ctx, id)
}

func (s *catalogService) writeImage(relPath string, src io.Reader) error {
	full := filepath.Join(s.uploadDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, io.LimitReader(src, MaxImageSize+1)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *catalogService) removeImage(relPath string) {
	full := filepath.Join(s.uploadDir, filepath.FromSlash(relPath))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		utils.LogWarn(err, "Failed to remove product image", map[string]interface{}{"path": relPath})
	}
}

func (s *catalogService) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	movements, total, err := s.movementRepo.GetMovements(ctx, filters)
	if err != nil {
		return nil, 0, internalError("listing inventory movements", err)
	}
	return movements, total, nil
}
