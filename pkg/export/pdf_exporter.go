package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDF lays the dataset out as a single bordered table on A4 pages.
// Orientation is "L" or "P"; anything else means portrait.
type PDF struct {
	Orientation string
}

func (PDF) ContentType() string { return "application/pdf" }

func (PDF) Extension() string { return "pdf" }

const (
	pdfMargin    = 10.0
	pdfCellChars = 48
)

func (p PDF) Render(data Dataset) ([]byte, error) {
	if err := data.check(); err != nil {
		return nil, err
	}
	orientation := "P"
	if p.Orientation == "L" {
		orientation = "L"
	}

	doc := gofpdf.New(orientation, "mm", "A4", "")
	doc.SetMargins(pdfMargin, 15, pdfMargin)
	doc.SetAutoPageBreak(true, 15)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := doc.GetPageSize()
	widths := columnWidths(data.Columns, pageWidth-2*pdfMargin)

	header := func() {
		doc.SetFont("Arial", "B", 9)
		doc.SetFillColor(230, 230, 230)
		for i, col := range data.Columns {
			doc.CellFormat(widths[i], 8, tr(col.Header), "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont("Arial", "", 8)
	}
	doc.SetHeaderFunc(func() {
		if doc.PageNo() > 1 {
			header()
		}
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont("Arial", "I", 7)
		doc.CellFormat(0, 5, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "R", false, 0, "")
	})

	doc.AddPage()
	if data.Title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, 9, tr(data.Title), "", 1, "L", false, 0, "")
	}
	if data.Subtitle != "" {
		doc.SetFont("Arial", "", 9)
		doc.CellFormat(0, 6, tr(data.Subtitle), "", 1, "L", false, 0, "")
	}
	doc.Ln(3)
	header()
	for _, row := range data.Rows {
		for i, cell := range row {
			doc.CellFormat(widths[i], 7, tr(truncate(cell, pdfCellChars)), "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(cols []Column, total float64) []float64 {
	sum := 0.0
	weights := make([]float64, len(cols))
	for i, col := range cols {
		weights[i] = col.Weight
		if weights[i] <= 0 {
			weights[i] = 1
		}
		sum += weights[i]
	}
	for i := range weights {
		weights[i] = total * weights[i] / sum
	}
	return weights
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "~"
}
