package render

import (
	"fmt"
	"io"
	"strconv"

	"restaurant_pos_backend/internal/models"

	"github.com/go-pdf/fpdf"
)

const (
	receiptWidth  = 80.0
	receiptMargin = 5.0
	lineHeight    = 4.5
)

// ReceiptPDF writes a narrow till receipt for the given snapshot.
func ReceiptPDF(w io.Writer, header models.ReceiptHeader, receiptNumber string, data models.ReceiptData) error {
	// The page grows with the number of items.
	height := 120.0 + float64(len(data.Items))*2*lineHeight
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: receiptWidth, Ht: height},
	})
	pdf.SetMargins(receiptMargin, receiptMargin, receiptMargin)
	pdf.SetAutoPageBreak(true, receiptMargin)
	pdf.SetCreationDate(data.OrderDate)
	pdf.SetTitle("Receipt "+receiptNumber, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	body := receiptWidth - 2*receiptMargin

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(body, 6, tr(header.RestaurantName), "", 1, "C", false, 0, "")
	if header.RestaurantAddress != "" {
		pdf.SetFont("Helvetica", "", 7)
		pdf.MultiCell(body, 3.5, tr(header.RestaurantAddress), "", "C", false)
	}
	separator(pdf)

	pdf.SetFont("Helvetica", "", 8)
	keyValue(pdf, tr, body, "Receipt", receiptNumber)
	keyValue(pdf, tr, body, "Order", data.OrderNumber)
	keyValue(pdf, tr, body, "Date", data.OrderDate.Format("2006-01-02 15:04"))
	table := "N/A"
	if data.TableNumber != nil {
		table = *data.TableNumber
	}
	keyValue(pdf, tr, body, "Table", table)
	keyValue(pdf, tr, body, "Customer", data.CustomerName)
	separator(pdf)

	for _, item := range data.Items {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.MultiCell(body, lineHeight, tr(item.Name), "", "L", false)
		pdf.SetFont("Helvetica", "", 8)
		qty := strconv.Itoa(item.Quantity) + " x " + FormatMoney(item.Price)
		pdf.CellFormat(body/2, lineHeight, tr(qty), "", 0, "L", false, 0, "")
		pdf.CellFormat(body/2, lineHeight, tr(FormatMoney(item.Total)), "", 1, "R", false, 0, "")
		if item.Notes != nil && *item.Notes != "" {
			pdf.SetFont("Helvetica", "I", 7)
			pdf.MultiCell(body, 3.5, tr("  "+*item.Notes), "", "L", false)
		}
	}
	separator(pdf)

	keyValue(pdf, tr, body, "Subtotal", FormatMoney(data.Subtotal))
	keyValue(pdf, tr, body, "Tax (10%)", FormatMoney(data.Tax))
	pdf.SetFont("Helvetica", "B", 9)
	keyValue(pdf, tr, body, "TOTAL", FormatMoney(data.Total))

	if data.Notes != nil && *data.Notes != "" {
		separator(pdf)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.MultiCell(body, 3.5, tr("Notes: "+*data.Notes), "", "L", false)
	}
	if header.Footer != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "", 7)
		pdf.MultiCell(body, 3.5, tr(header.Footer), "", "C", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering receipt %s: %w", receiptNumber, err)
	}
	return nil
}

func keyValue(pdf *fpdf.Fpdf, tr func(string) string, width float64, key, value string) {
	pdf.CellFormat(width*0.4, lineHeight, tr(key), "", 0, "L", false, 0, "")
	pdf.CellFormat(width*0.6, lineHeight, tr(value), "", 1, "R", false, 0, "")
}

func separator(pdf *fpdf.Fpdf) {
	y := pdf.GetY() + 1
	pdf.SetDashPattern([]float64{0.8, 0.8}, 0)
	pdf.Line(receiptMargin, y, receiptWidth-receiptMargin, y)
	pdf.SetDashPattern([]float64{}, 0)
	pdf.Ln(2.5)
}
