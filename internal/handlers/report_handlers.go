package handlers

import (
	"bytes"
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the statistics endpoints.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	summary, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "compute dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// salesReportParams reads date_from, date_to and group_by. Missing dates are
// left zero so the service reports them as required.
func salesReportParams(c *gin.Context) (models.SalesReportParams, bool) {
	q := newQueryParser(c)
	from := q.Date("date_from", false)
	to := q.Date("date_to", false)
	if q.Failed() {
		return models.SalesReportParams{}, false
	}
	params := models.SalesReportParams{GroupBy: c.Query("group_by")}
	if from != nil {
		params.DateFrom = *from
	}
	if to != nil {
		params.DateTo = *to
	}
	return params, true
}

func (h *ReportHandler) SalesReport(c *gin.Context) {
	params, ok := salesReportParams(c)
	if !ok {
		return
	}
	report, err := h.reportService.SalesReport(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "compute sales report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportSalesReport renders the report fully before answering so a failure
// still produces a JSON error instead of a truncated file.
func (h *ReportHandler) ExportSalesReport(c *gin.Context) {
	params, ok := salesReportParams(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	filename, contentType, err := h.reportService.ExportSalesReport(c.Request.Context(), params, c.Query("format"), &buf)
	if err != nil {
		respondServiceError(c, err, "export sales report")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
