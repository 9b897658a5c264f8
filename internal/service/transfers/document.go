package transfers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

// Direction selects which side of a transfer a document is issued for.
type Direction string

const (
	DirectionOut Direction = "OUT"
	DirectionIn  Direction = "IN"
)

func (d Direction) sign() float64 {
	if d == DirectionOut {
		return -1
	}
	return 1
}

// RenderDocument produces the PDF invoice of one side of a transfer. The OUT
// document carries every amount negated; the IN document mirrors it.
func RenderDocument(t models.Transfer, dir Direction, from, to models.Store) ([]byte, error) {
	sign := dir.sign()

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(fmt.Sprintf("%s %s", t.InvoiceNumber, dir), false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	title := "TRANSFER OUT"
	if dir == DirectionIn {
		title = "TRANSFER IN"
	}
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Invoice: "+t.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+t.Date, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Category: "+string(t.Category), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "From: "+storeLabel(from), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "To: "+storeLabel(to), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{70, 20, 20, 30, 30}
	headers := []string{"Item", "Qty", "Unit", "Unit cost", "Total"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		align := "L"
		if i >= 3 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range t.Lines {
		name := line.Name
		if line.Comment != "" {
			name = name + " (" + line.Comment + ")"
		}
		pdf.CellFormat(widths[0], 7, truncate(name, 45), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, formatQty(line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, line.Unit, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, formatMoney(line.UnitCost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, formatMoney(sign*line.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(2)
	totals := []struct {
		label string
		value float64
	}{
		{"Amount", t.Amount},
		{"HST", t.HST},
		{"Net", t.Net},
	}
	for _, row := range totals {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 7, row.label, "", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(widths[4], 7, formatMoney(sign*row.value), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render %s document: %w", dir, err)
	}
	return buf.Bytes(), nil
}

func storeLabel(s models.Store) string {
	if s.Name == "" {
		return s.ID
	}
	return fmt.Sprintf("%s (%s)", s.Name, s.ID)
}

func formatMoney(v float64) string {
	if v == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatQty(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
