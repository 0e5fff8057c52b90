package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/pointage/internal/model"
)

const defaultSheet = "Sheet1"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes the export as a single-sheet workbook: a header row with
// the column labels followed by the rows in order.
func (g *Generator) Generate(export model.MonthlyExport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := sanitizeSheetName(export.SheetName)
	if err := file.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, err
	}

	if err := g.writeTable(file, sheet, export); err != nil {
		return nil, err
	}

	for i, width := range export.ColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetColWidth(sheet, col, col, width); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeTable(file *excelize.File, sheet string, export model.MonthlyExport) error {
	header := make([]interface{}, len(export.Columns))
	for i, label := range export.Columns {
		header[i] = label
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range export.Rows {
		if row.IsBlank() {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.Values()
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Pointage"
	}
	if runes := []rune(value); len(runes) > 31 {
		value = string(runes[:31])
	}
	return value
}
