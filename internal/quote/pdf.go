package quote

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/matijepekovic/pricer-api/internal/pricing"
)

// RenderPDF produces a printable quote document. Amounts are formatted
// to two decimal places here only; the quote's stored totals stay exact.
func RenderPDF(q pricing.Quote) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	company := q.CompanyName
	if company == "" {
		company = "Quote"
	}
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, company, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Quote "+q.ID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, q.CreatedAt.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if q.CustomerName != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 6, "Prepared for", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, q.CustomerName, "", 1, "L", false, 0, "")
		if q.CustomerEmail != "" {
			pdf.CellFormat(0, 5, q.CustomerEmail, "", 1, "L", false, 0, "")
		}
		if q.CustomerPhone != "" {
			pdf.CellFormat(0, 5, q.CustomerPhone, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "Line total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range q.Items {
		pdf.CellFormat(90, 7, item.Product.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, money(item.Product.BasePrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, money(item.LineTotalBeforeDiscount), "1", 1, "R", false, 0, "")
		for _, applied := range item.AppliedMultipliers {
			label := fmt.Sprintf("    incl. %s x%d", applied.Name, applied.AppliedQty)
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(150, 6, label, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, money(applied.Surcharge), "1", 1, "R", false, 0, "")
			pdf.SetFont("Arial", "", 10)
		}
	}
	pdf.Ln(4)

	totals := q.Totals
	writeTotal(pdf, "Subtotal", totals.SubtotalBeforeDiscount, false)
	if totals.TotalDiscountAmount.IsPositive() {
		writeTotal(pdf, fmt.Sprintf("Discount (%s%%)", q.GlobalDiscountRate.String()), totals.TotalDiscountAmount.Neg(), false)
		writeTotal(pdf, "Subtotal after discount", totals.SubtotalAfterDiscount, false)
	}
	writeTotal(pdf, fmt.Sprintf("Tax (%s%%)", q.TaxRate.String()), totals.TaxAmount, false)
	writeTotal(pdf, "Total", totals.GrandTotal, true)

	if q.CustomMessage != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, q.CustomMessage, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTotal(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Arial", style, 10)
	pdf.CellFormat(150, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, money(amount), "", 1, "R", false, 0, "")
}

func money(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
