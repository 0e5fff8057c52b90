package model

// ExportRow is one spreadsheet row under the seven fixed columns. Cells are
// strings or integers; a zero ExportRow is the blank separator.
type ExportRow struct {
	Date        interface{}
	RouteNumber interface{}
	PointCount  interface{}
	WorkerName  interface{}
	StartTime   interface{}
	EndTime     interface{}
	Hours       interface{}
}

func (r ExportRow) Values() []interface{} {
	return []interface{}{r.Date, r.RouteNumber, r.PointCount, r.WorkerName, r.StartTime, r.EndTime, r.Hours}
}

func (r ExportRow) IsBlank() bool {
	for _, v := range r.Values() {
		if v != nil {
			return false
		}
	}
	return true
}

// MonthlyExport is everything a sheet writer needs: ordered rows, their
// column labels and width hints, the sheet name and a suggested filename.
type MonthlyExport struct {
	SheetName    string
	FileBaseName string
	Columns      []string
	ColumnWidths []float64
	Rows         []ExportRow
}

type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}
