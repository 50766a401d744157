package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler holds the table service.
type TableHandler struct {
	tableService services.TableService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ts services.TableService) *TableHandler {
	return &TableHandler{tableService: ts}
}

var tableStatuses = []string{
	models.TableStatusAvailable,
	models.TableStatusOccupied,
	models.TableStatusReserved,
	models.TableStatusDisabled,
}

// GetTables lists tables ordered by number, optionally by status.
func (h *TableHandler) GetTables(c *gin.Context) {
	q := newQueryParser(c)
	status := q.OneOf("status", tableStatuses...)
	if q.Failed() {
		return
	}
	h.listTables(c, status)
}

// GetAvailableTables lists the tables an order can be placed on.
func (h *TableHandler) GetAvailableTables(c *gin.Context) {
	status := models.TableStatusAvailable
	h.listTables(c, &status)
}

func (h *TableHandler) listTables(c *gin.Context, status *string) {
	tables, err := h.tableService.GetTables(c.Request.Context(), status)
	if err != nil {
		respondServiceError(c, err, "fetch tables")
		return
	}
	if tables == nil {
		tables = []models.Table{}
	}
	c.JSON(http.StatusOK, tables)
}

func (h *TableHandler) GetTableByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	table, err := h.tableService.GetTableByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch table")
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *TableHandler) CreateTable(c *gin.Context) {
	var req models.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	table, err := h.tableService.CreateTable(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create table")
		return
	}
	c.JSON(http.StatusCreated, table)
}

func (h *TableHandler) UpdateTable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	table, err := h.tableService.UpdateTable(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "update table")
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *TableHandler) DeleteTable(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.tableService.DeleteTable(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete table")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted successfully"})
}

// UpdateTableStatus is the administrative status override.
func (h *TableHandler) UpdateTableStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateTableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindingError(c, err)
		return
	}
	table, err := h.tableService.UpdateTableStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondServiceError(c, err, "update table status")
		return
	}
	c.JSON(http.StatusOK, table)
}
