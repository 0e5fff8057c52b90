package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/pointage/internal/model"
)

const fontName = "Helvetica"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the export table on landscape A4 pages. Core fonts only
// cover cp1252, which is enough for the French labels.
func (g *Generator) Generate(export model.MonthlyExport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(export.SheetName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	widths := scaleWidths(export.ColumnWidths, len(export.Columns), 267)

	pdf.AddPage()
	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Pointage mensuel - %s", export.SheetName)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	drawTableRow(pdf, tr, export.Columns, widths, true)
	for _, row := range export.Rows {
		if row.IsBlank() {
			pdf.Ln(4)
			continue
		}
		cells := make([]string, 0, len(export.Columns))
		for _, v := range row.Values() {
			cells = append(cells, cellText(v))
		}
		drawTableRow(pdf, tr, cells, widths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if !header && i == 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, header, 0, "")
	}
	pdf.Ln(-1)
}

// scaleWidths stretches the character width hints to the printable width.
func scaleWidths(hints []float64, n int, total float64) []float64 {
	widths := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		w := 10.0
		if i < len(hints) && hints[i] > 0 {
			w = hints[i]
		}
		widths[i] = w
		sum += w
	}
	for i := range widths {
		widths[i] = widths[i] / sum * total
	}
	return widths
}

func cellText(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
