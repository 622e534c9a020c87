// Package receipts renders order receipts as PDF documents.
package receipts

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/pkg/db/models"
)

const (
	pageMargin = 15.0
	lineHeight = 7.0
)

var columnWidths = [4]float64{95, 25, 30, 30}

// Renderer builds receipts branded with the store name.
type Renderer struct {
	storeName string
	now       func() time.Time
}

func NewRenderer(storeName string) *Renderer {
	if strings.TrimSpace(storeName) == "" {
		storeName = "Daisy Days"
	}
	return &Renderer{storeName: storeName, now: time.Now}
}

// Filename returns the download name for an order's receipt.
func Filename(order models.Order) string {
	return fmt.Sprintf("receipt-%s.pdf", shortID(order))
}

// Render produces the PDF bytes for an order. Items must be loaded.
func (r *Renderer) Render(order models.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(fmt.Sprintf("%s receipt %s", r.storeName, shortID(order)), true)
	pdf.SetCreator(r.storeName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(r.storeName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, lineHeight, tr("Order receipt"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 10)
	meta := [][2]string{
		{"Order", order.ID.String()},
		{"Placed", order.CreatedAt.UTC().Format("2 Jan 2006 15:04 MST")},
		{"Status", string(order.Status)},
		{"Issued", r.now().UTC().Format("2 Jan 2006")},
	}
	for _, row := range meta {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(25, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, lineHeight, "Ship to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range order.ShippingAddress.Lines() {
		pdf.CellFormat(0, 5.5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 236, 220)
	headers := [4]string{"Item", "Qty", "Unit price", "Total"}
	aligns := [4]string{"L", "R", "R", "R"}
	for i, h := range headers {
		pdf.CellFormat(columnWidths[i], lineHeight, h, "B", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		cells := [4]string{
			truncate(item.ProductName, 55),
			fmt.Sprintf("%d", item.Quantity),
			money(item.UnitPrice),
			money(item.LineTotal),
		}
		for i, c := range cells {
			pdf.CellFormat(columnWidths[i], lineHeight, tr(c), "", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(2)

	labelWidth := columnWidths[0] + columnWidths[1] + columnWidths[2]
	pdf.CellFormat(labelWidth, lineHeight, "Subtotal", "T", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[3], lineHeight, money(order.Subtotal), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelWidth, lineHeight, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[3], lineHeight, money(order.TotalAmount), "", 1, "R", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("Thank you for shopping with %s.", r.storeName)), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func shortID(order models.Order) string {
	return strings.ToUpper(strings.ReplaceAll(order.ID.String(), "-", "")[:8])
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
