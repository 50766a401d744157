package services

import (
	"context"
	"io"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/render"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	ExportFormatPDF = "pdf"
	ExportFormatCSV = "csv"

	topProductLimit = 5
)

// ReportService computes the statistics shown to cashiers and admins.
type ReportService interface {
	Dashboard(ctx context.Context) (*models.DashboardSummary, error)
	SalesReport(ctx context.Context, params models.SalesReportParams) (*models.SalesReport, error)
	// ExportSalesReport writes the report in format to w and returns the
	// download file name and content type.
	ExportSalesReport(ctx context.Context, params models.SalesReportParams, format string, w io.Writer) (filename, contentType string, err error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	settings   SettingService
	now        func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(rr repositories.ReportRepository, settings SettingService) ReportService {
	return &reportService{reportRepo: rr, settings: settings, now: time.Now}
}

// growth is the percentage change from previous to current, rounded to two
// places. It is zero when there is nothing to compare against.
func growth(current, previous decimal.Decimal) decimal.Decimal {
	if !previous.IsPositive() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}

func (s *reportService) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	summary := &models.DashboardSummary{}
	var lastMonthOrders int
	var lastMonthRevenue decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary.Today.Orders, summary.Today.Revenue, err = s.reportRepo.OrderTotals(gctx, today, tomorrow)
		return err
	})
	g.Go(func() error {
		var err error
		summary.ThisMonth.Orders, summary.ThisMonth.Revenue, err = s.reportRepo.OrderTotals(gctx, monthStart, tomorrow)
		return err
	})
	g.Go(func() error {
		var err error
		lastMonthOrders, lastMonthRevenue, err = s.reportRepo.OrderTotals(gctx, lastMonthStart, monthStart)
		return err
	})
	g.Go(func() error {
		var err error
		summary.OrderStatusDistribution, err = s.reportRepo.StatusDistribution(gctx, monthStart, tomorrow)
		return err
	})
	g.Go(func() error {
		var err error
		summary.TopProducts, err = s.reportRepo.TopProducts(gctx, monthStart, tomorrow, topProductLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalError("computing dashboard", err)
	}

	summary.ThisMonth.OrderGrowth = growth(decimal.NewFromInt(int64(summary.ThisMonth.Orders)), decimal.NewFromInt(int64(lastMonthOrders)))
	summary.ThisMonth.RevenueGrowth = growth(summary.ThisMonth.Revenue, lastMonthRevenue)
	return summary, nil
}

func validateReportParams(params *models.SalesReportParams) error {
	fields := map[string]string{}
	if params.DateFrom.IsZero() {
		fields["date_from"] = "is required"
	}
	if params.DateTo.IsZero() {
		fields["date_to"] = "is required"
	}
	if !params.DateFrom.IsZero() && !params.DateTo.IsZero() && params.DateTo.Before(params.DateFrom) {
		fields["date_to"] = "must be a date after or equal to date_from"
	}
	if params.GroupBy == "" {
		params.GroupBy = models.GroupByDay
	}
	switch params.GroupBy {
	case models.GroupByDay, models.GroupByWeek, models.GroupByMonth:
	default:
		fields["group_by"] = "must be one of day, week, month"
	}
	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

func (s *reportService) SalesReport(ctx context.Context, params models.SalesReportParams) (*models.SalesReport, error) {
	if err := validateReportParams(&params); err != nil {
		return nil, err
	}
	from := time.Date(params.DateFrom.Year(), params.DateFrom.Month(), params.DateFrom.Day(), 0, 0, 0, 0, params.DateFrom.Location())
	to := time.Date(params.DateTo.Year(), params.DateTo.Month(), params.DateTo.Day(), 0, 0, 0, 0, params.DateTo.Location()).AddDate(0, 0, 1)

	report := &models.SalesReport{DateFrom: from, DateTo: to.AddDate(0, 0, -1), GroupBy: params.GroupBy}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.reportRepo.PaidSummary(gctx, from, to)
		if err == nil {
			report.Summary = *summary
		}
		return err
	})
	g.Go(func() error {
		var err error
		report.SalesData, err = s.reportRepo.SalesBuckets(gctx, from, to, params.GroupBy)
		return err
	})
	g.Go(func() error {
		var err error
		report.ProductSales, err = s.reportRepo.ProductSales(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalError("computing sales report", err)
	}
	return report, nil
}

func (s *reportService) ExportSalesReport(ctx context.Context, params models.SalesReportParams, format string, w io.Writer) (string, string, error) {
	if format == "" {
		format = ExportFormatPDF
	}
	if format != ExportFormatPDF && format != ExportFormatCSV {
		return "", "", newValidationError(map[string]string{"format": "must be one of pdf, csv"})
	}
	report, err := s.SalesReport(ctx, params)
	if err != nil {
		return "", "", err
	}

	if format == ExportFormatCSV {
		if err := render.SalesReportCSV(w, report); err != nil {
			return "", "", internalError("exporting sales report", err)
		}
		return render.SalesReportFilename(report, "csv"), "text/csv", nil
	}
	if err := render.SalesReportPDF(w, s.settings.ReceiptHeader(ctx).RestaurantName, report); err != nil {
		return "", "", internalError("exporting sales report", err)
	}
	return render.SalesReportFilename(report, "pdf"), "application/pdf", nil
}
