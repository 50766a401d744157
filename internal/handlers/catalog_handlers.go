package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves categories, products and their stock.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// --- Categories ---

// GetCategories lists active categories; privileged callers may pass
// all=true to include inactive ones.
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	q := newQueryParser(c)
	all := q.Bool("all")
	if q.Failed() {
		return
	}
	activeOnly := true
	if all != nil && *all && currentViewer(c).CanViewAll() {
		activeOnly = false
	}
	categories, err := h.catalogService.GetCategories(c.Request.Context(), activeOnly)
	if err != nil {
		respondServiceError(c, err, "fetch categories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) GetCategoryByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := h.catalogService.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// --- Products ---

func (h *CatalogHandler) GetProducts(c *gin.Context) {
	q := newQueryParser(c)
	filters := models.ProductFilters{
		CategoryID:  q.Int64("category_id"),
		IsAvailable: q.Bool("is_available"),
		Search:      q.String("search"),
	}
	if q.Failed() {
		return
	}
	filters.Page, filters.PageSize = pagination(c)

	products, total, err := h.catalogService.GetProducts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "fetch products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, paginated(products, filters.Page, filters.PageSize, total))
}

func (h *CatalogHandler) GetProductByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProductByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	actorID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), actorID, req)
	if err != nil {
		respondServiceError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (h *CatalogHandler) ToggleAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.ToggleAvailability(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "toggle product availability")
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateStock sets the stock level; the change is recorded as an adjustment.
func (h *CatalogHandler) UpdateStock(c *gin.Context) {
	actorID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	product, err := h.catalogService.UpdateStock(c.Request.Context(), actorID, id, req)
	if err != nil {
		respondServiceError(c, err, "update stock")
		return
	}
	c.JSON(http.StatusOK, product)
}

// UploadImage accepts a multipart "image" field.
func (h *CatalogHandler) UploadImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxImageSize+(1<<20))
	fh, err := c.FormFile("image")
	if err != nil {
		utils.RespondValidationFailed(c, err.Error(), map[string]string{"image": "is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		utils.RespondValidationFailed(c, err.Error(), map[string]string{"image": "could not be read"})
		return
	}
	defer f.Close()

	product, err := h.catalogService.UploadImage(c.Request.Context(), id, fh.Filename, fh.Size, f)
	if err != nil {
		respondServiceError(c, err, "upload product image")
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- Inventory movements ---

var movementTypes = []string{
	models.MovementTypeSale,
	models.MovementTypeOrderCancelled,
	models.MovementTypeOrderDeleted,
	models.MovementTypeAdjustment,
}

// GetMovements lists the stock ledger.
func (h *CatalogHandler) GetMovements(c *gin.Context) {
	q := newQueryParser(c)
	filters := models.MovementFilters{
		ProductID:    q.Int64("product_id"),
		OrderID:      q.Int64("order_id"),
		MovementType: q.OneOf("movement_type", movementTypes...),
		DateFrom:     q.Date("date_from", false),
		DateTo:       q.Date("date_to", true),
	}
	if q.Failed() {
		return
	}
	filters.Page, filters.PageSize = pagination(c)

	movements, total, err := h.catalogService.GetMovements(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "fetch inventory movements")
		return
	}
	if movements == nil {
		movements = []models.InventoryMovement{}
	}
	c.JSON(http.StatusOK, paginated(movements, filters.Page, filters.PageSize, total))
}
