package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/render"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"
)

// ReceiptPreview is the receipt of an order as it would be printed now.
type ReceiptPreview struct {
	Header models.ReceiptHeader `json:"header"`
	Data   models.ReceiptData   `json:"receipt_data"`
}

// ReceiptFile locates a rendered receipt on disk.
type ReceiptFile struct {
	Path     string
	Filename string
}

// ReceiptService issues receipts for orders and serves their files.
type ReceiptService interface {
	CreateReceipt(ctx context.Context, req models.CreateReceiptRequest) (*models.Receipt, error)
	GetReceipts(ctx context.Context, filters models.ReceiptFilters) ([]models.Receipt, int, error)
	GetReceiptByID(ctx context.Context, viewer Viewer, id int64) (*models.Receipt, error)
	// Download returns the receipt file, rendering it again from the stored
	// snapshot when it is missing.
	Download(ctx context.Context, viewer Viewer, id int64) (*ReceiptFile, error)
	DeleteReceipt(ctx context.Context, id int64) error
	Preview(ctx context.Context, viewer Viewer, orderID int64) (*ReceiptPreview, error)
}

type receiptService struct {
	uow         repositories.UnitOfWork
	receiptRepo repositories.ReceiptRepository
	orderRepo   repositories.OrderRepository
	sequences   repositories.SequenceRepository
	settings    SettingService
	receiptDir  string
	now         func() time.Time
}

// NewReceiptService creates a new instance of ReceiptService. Files are
// written below receiptDir.
func NewReceiptService(
	uow repositories.UnitOfWork,
	rr repositories.ReceiptRepository,
	or repositories.OrderRepository,
	sr repositories.SequenceRepository,
	settings SettingService,
	receiptDir string,
) ReceiptService {
	return &receiptService{
		uow:         uow,
		receiptRepo: rr,
		orderRepo:   or,
		sequences:   sr,
		settings:    settings,
		receiptDir:  receiptDir,
		now:         time.Now,
	}
}

// snapshot freezes what is printed on the receipt of order.
func snapshot(order *models.Order) models.ReceiptData {
	data := models.ReceiptData{
		OrderNumber:  order.OrderNumber,
		CustomerName: utils.DerefString(order.UserName),
		TableNumber:  order.TableNumber,
		OrderDate:    order.CreatedAt,
		Items:        make([]models.ReceiptItem, 0, len(order.Lines)),
		Subtotal:     order.Subtotal,
		Tax:          order.Tax,
		Total:        order.Total,
		Notes:        order.Notes,
	}
	for _, line := range order.Lines {
		data.Items = append(data.Items, models.ReceiptItem{
			Name:     utils.DerefString(line.ProductName),
			Quantity: line.Quantity,
			Price:    line.UnitPrice,
			Total:    line.LineTotal,
			Notes:    line.Notes,
		})
	}
	return data
}

func (s *receiptService) CreateReceipt(ctx context.Context, req models.CreateReceiptRequest) (*models.Receipt, error) {
	if req.FileType != "" && req.FileType != models.ReceiptFileTypePDF {
		return nil, newValidationError(map[string]string{"file_type": "must be pdf"})
	}

	var receipt *models.Receipt
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		receipt = nil
		if _, err := s.orderRepo.GetOrderForUpdate(ctx, exec, req.OrderID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return newValidationError(map[string]string{"order_id": "does not exist"})
			}
			return internalError("locking order", err)
		}
		exists, err := s.receiptRepo.ExistsForOrder(ctx, exec, req.OrderID)
		if err != nil {
			return internalError("checking existing receipt", err)
		}
		if exists {
			return fmt.Errorf("%w: receipt already exists for this order", ErrInvalidState)
		}

		order, err := s.orderRepo.LoadOrder(ctx, exec, req.OrderID)
		if err != nil {
			return internalError("loading order", err)
		}
		now := s.now()
		seq, err := s.sequences.Next(ctx, exec, repositories.SequenceScopeReceipt, now)
		if err != nil {
			return internalError("allocating receipt number", err)
		}
		rc := &models.Receipt{
			ReceiptNumber: formatDailyNumber("RCP", now, seq),
			OrderID:       order.ID,
			FileType:      models.ReceiptFileTypePDF,
			ReceiptData:   snapshot(order),
			OrderUserID:   order.UserID,
		}
		if err := s.receiptRepo.CreateReceipt(ctx, exec, rc); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: receipt already exists for this order", ErrInvalidState)
			}
			return internalError("creating receipt", err)
		}
		receipt = rc
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Receipt created", map[string]interface{}{"receipt_id": receipt.ID, "receipt_number": receipt.ReceiptNumber, "order_id": receipt.OrderID})
	if err := s.renderFile(ctx, receipt); err != nil {
		// The receipt exists; Download renders the file again on demand.
		utils.LogError(err, "Failed to render receipt file", map[string]interface{}{"receipt_id": receipt.ID})
	}
	return receipt, nil
}

func (s *receiptService) GetReceipts(ctx context.Context, filters models.ReceiptFilters) ([]models.Receipt, int, error) {
	receipts, total, err := s.receiptRepo.GetReceipts(ctx, filters)
	if err != nil {
		return nil, 0, internalError("listing receipts", err)
	}
	return receipts, total, nil
}

func (s *receiptService) GetReceiptByID(ctx context.Context, viewer Viewer, id int64) (*models.Receipt, error) {
	receipt, err := s.receiptRepo.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: receipt %d", ErrNotFound, id)
		}
		return nil, internalError("getting receipt", err)
	}
	if !viewer.CanSee(receipt.OrderUserID) {
		return nil, fmt.Errorf("%w: receipt %d belongs to another user", ErrUnauthorized, id)
	}
	return receipt, nil
}

func (s *receiptService) Download(ctx context.Context, viewer Viewer, id int64) (*ReceiptFile, error) {
	receipt, err := s.GetReceiptByID(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if receipt.FilePath == nil || !s.fileExists(*receipt.FilePath) {
		if err := s.renderFile(ctx, receipt); err != nil {
			return nil, internalError("rendering receipt file", err)
		}
	}
	return &ReceiptFile{
		Path:     filepath.Join(s.receiptDir, *receipt.FilePath),
		Filename: receipt.ReceiptNumber + "." + receipt.FileType,
	}, nil
}

func (s *receiptService) DeleteReceipt(ctx context.Context, id int64) error {
	receipt, err := s.receiptRepo.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: receipt %d", ErrNotFound, id)
		}
		return internalError("getting receipt", err)
	}
	err = s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.receiptRepo.DeleteReceipt(ctx, exec, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: receipt %d", ErrNotFound, id)
		}
		return internalError("deleting receipt", err)
	}
	if receipt.FilePath != nil {
		full := filepath.Join(s.receiptDir, *receipt.FilePath)
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			utils.LogWarn(err, "Failed to remove receipt file", map[string]interface{}{"path": full})
		}
	}
	return nil
}

func (s *receiptService) Preview(ctx context.Context, viewer Viewer, orderID int64) (*ReceiptPreview, error) {
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
	return &ReceiptPreview{Header: s.settings.ReceiptHeader(ctx), Data: snapshot(order)}, nil
}

// renderFile writes the PDF of receipt and stores its path relative to the
// receipt directory.
func (s *receiptService) renderFile(ctx context.Context, receipt *models.Receipt) error {
	relPath := "receipt_" + receipt.ReceiptNumber + ".pdf"
	full := filepath.Join(s.receiptDir, relPath)
	if err := os.MkdirAll(s.receiptDir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	if err := render.ReceiptPDF(f, s.settings.ReceiptHeader(ctx), receipt.ReceiptNumber, receipt.ReceiptData); err != nil {
		f.Close()
		os.Remove(full)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if receipt.FilePath == nil || *receipt.FilePath != relPath {
		err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
			return s.receiptRepo.UpdateFilePath(ctx, exec, receipt.ID, relPath)
		})
		if err != nil {
			return err
		}
	}
	receipt.FilePath = &relPath
	return nil
}

func (s *receiptService) fileExists(relPath string) bool {
	_, err := os.Stat(filepath.Join(s.receiptDir, relPath))
	return err == nil
}
