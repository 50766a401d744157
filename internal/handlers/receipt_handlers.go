package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReceiptHandler serves receipts and their PDF files.
type ReceiptHandler struct {
	receiptService services.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(rs services.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: rs}
}

func (h *ReceiptHandler) CreateReceipt(c *gin.Context) {
	var req models.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	receipt, err := h.receiptService.CreateReceipt(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create receipt")
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *ReceiptHandler) GetReceipts(c *gin.Context) {
	q := newQueryParser(c)
	filters := models.ReceiptFilters{
		Search:   q.String("search"),
		DateFrom: q.Date("date_from", false),
		DateTo:   q.Date("date_to", true),
	}
	if q.Failed() {
		return
	}
	filters.Page, filters.PageSize = pagination(c)

	receipts, total, err := h.receiptService.GetReceipts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "fetch receipts")
		return
	}
	if receipts == nil {
		receipts = []models.Receipt{}
	}
	c.JSON(http.StatusOK, paginated(receipts, filters.Page, filters.PageSize, total))
}

func (h *ReceiptHandler) GetReceiptByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	receipt, err := h.receiptService.GetReceiptByID(c.Request.Context(), currentViewer(c), id)
	if err != nil {
		respondServiceError(c, err, "fetch receipt")
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// Download streams the receipt PDF as an attachment.
func (h *ReceiptHandler) Download(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	file, err := h.receiptService.Download(c.Request.Context(), currentViewer(c), id)
	if err != nil {
		respondServiceError(c, err, "download receipt")
		return
	}
	c.FileAttachment(file.Path, file.Filename)
}

func (h *ReceiptHandler) DeleteReceipt(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.receiptService.DeleteReceipt(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete receipt")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Receipt deleted successfully"})
}

// Preview shows what the receipt of an order would contain without storing it.
func (h *ReceiptHandler) Preview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	preview, err := h.receiptService.Preview(c.Request.Context(), currentViewer(c), id)
	if err != nil {
		respondServiceError(c, err, "preview receipt")
		return
	}
	c.JSON(http.StatusOK, preview)
}
