package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"restaurant_pos_backend/internal/models"

	"github.com/go-pdf/fpdf"
)

// SalesReportFilename is the download name of an exported report.
func SalesReportFilename(report *models.SalesReport, ext string) string {
	return fmt.Sprintf("sales-report-%s-to-%s.%s", report.DateFrom.Format("2006-01-02"), report.DateTo.Format("2006-01-02"), ext)
}

// SalesReportPDF writes the report as an A4 document.
func SalesReportPDF(w io.Writer, restaurantName string, report *models.SalesReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Sales report", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, tr(restaurantName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	period := fmt.Sprintf("Sales report %s to %s (by %s)",
		report.DateFrom.Format("2006-01-02"), report.DateTo.Format("2006-01-02"), report.GroupBy)
	pdf.CellFormat(0, 6, tr(period), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	summary := [][2]string{
		{"Total orders", strconv.Itoa(report.Summary.TotalOrders)},
		{"Total revenue", FormatMoney(report.Summary.TotalRevenue)},
		{"Average order value", FormatMoney(report.Summary.AverageOrderValue)},
		{"Items sold", strconv.Itoa(report.Summary.TotalItemsSold)},
	}
	for _, row := range summary {
		pdf.CellFormat(60, 6, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, tr(row[1]), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	writeTable(pdf, tr, "Sales by period",
		[]string{"Period", "Orders", "Revenue", "Average"},
		[]float64{50, 30, 50, 50},
		salesRows(report))
	pdf.Ln(4)
	writeTable(pdf, tr, "Sales by product",
		[]string{"Product", "Quantity", "Revenue"},
		[]float64{90, 30, 60},
		productRows(report))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering sales report: %w", err)
	}
	return nil
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, title string, headers []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	if len(rows) == 0 {
		var total float64
		for _, w := range widths {
			total += w
		}
		pdf.CellFormat(total, 6, "No sales in this period", "1", 1, "C", false, 0, "")
		return
	}
	for _, row := range rows {
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func salesRows(report *models.SalesReport) [][]string {
	rows := make([][]string, 0, len(report.SalesData))
	for _, b := range report.SalesData {
		rows = append(rows, []string{b.Period, strconv.Itoa(b.Orders), FormatMoney(b.Revenue), FormatMoney(b.AverageOrderValue)})
	}
	return rows
}

func productRows(report *models.SalesReport) [][]string {
	rows := make([][]string, 0, len(report.ProductSales))
	for _, p := range report.ProductSales {
		rows = append(rows, []string{p.ProductName, strconv.Itoa(p.Quantity), FormatMoney(p.Revenue)})
	}
	return rows
}

// SalesReportCSV writes the report as CSV sections separated by blank lines.
// Amounts are plain decimals so spreadsheets can sum them.
func SalesReportCSV(w io.Writer, report *models.SalesReport) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"Sales report", report.DateFrom.Format("2006-01-02"), report.DateTo.Format("2006-01-02"), report.GroupBy},
		{},
		{"Total orders", "Total revenue", "Average order value", "Items sold"},
		{
			strconv.Itoa(report.Summary.TotalOrders),
			report.Summary.TotalRevenue.StringFixed(2),
			report.Summary.AverageOrderValue.StringFixed(2),
			strconv.Itoa(report.Summary.TotalItemsSold),
		},
		{},
		{"Period", "Orders", "Revenue", "Average order value"},
	}
	for _, b := range report.SalesData {
		records = append(records, []string{b.Period, strconv.Itoa(b.Orders), b.Revenue.StringFixed(2), b.AverageOrderValue.StringFixed(2)})
	}
	records = append(records, []string{}, []string{"Product ID", "Product", "Quantity", "Revenue"})
	for _, p := range report.ProductSales {
		records = append(records, []string{strconv.FormatInt(p.ProductID, 10), p.ProductName, strconv.Itoa(p.Quantity), p.Revenue.StringFixed(2)})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing sales report csv: %w", err)
	}
	return nil
}
