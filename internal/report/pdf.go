package report

import (
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/Agrid-Dev/linerating/internal/batch"
)

const (
	pdfKeyWidth = 28.0 // mm, manufacturer and codename columns
	pdfRowH     = 6.0
)

// WritePDF renders the table on landscape A4 pages, ratings rounded to
// whole amperes.
func WritePDF(w io.Writer, t batch.Table) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Conductor ratings", true)
	pdf.SetAutoPageBreak(true, 10)
	// Core fonts are cp1252; descriptions may carry "°C" and the like.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := pdfKeyWidth
	if n := len(t.Conditions); n > 0 {
		colW = (pageW - left - right - 2*pdfKeyWidth) / float64(n)
	}
	width := func(i int) float64 {
		if i < 2 {
			return pdfKeyWidth
		}
		return colW
	}

	header := HeaderRows(t)
	drawHeader := func() {
		for ri, r := range header {
			style := ""
			if ri == 0 {
				style = "B"
			}
			pdf.SetFont("Helvetica", style, 8)
			for i, s := range r {
				pdf.CellFormat(width(i), pdfRowH, tr(s), "1", 0, "C", ri == 0, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Conductor ratings (A)", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, "Generated "+time.Now().Format("2006-01-02"), "", 1, "L", false, 0, "")
		pdf.SetFillColor(230, 230, 230)
		drawHeader()
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 8)
	for _, r := range t.Rows {
		for i, s := range textRow(r, pdfCellText) {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(width(i), pdfRowH, tr(s), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf report: %w", err)
	}
	return nil
}

func pdfCellText(c batch.Cell) string {
	if !c.OK() {
		return CellText(c)
	}
	return fmt.Sprintf("%.0f", c.Rating)
}
