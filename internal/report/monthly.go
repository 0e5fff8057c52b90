package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurpe/pointage/internal/model"
	"github.com/nurpe/pointage/internal/timecalc"
)

var ErrNoEntries = errors.New("no entries to export")

var (
	columns = []string{
		"Date",
		"Numéro de Tournée",
		"Nombre de Points/Colis",
		"Ripeur",
		"Heure de Début",
		"Heure de Fin",
		"Heures Travaillées",
	}
	columnWidths = []float64{12, 18, 20, 20, 15, 15, 18}
)

const (
	labelTotals     = "TOTAUX MENSUELS"
	labelWorkedDays = "Jours travaillés"
	labelDailyRate  = "Prix par jour"
	labelAmount     = "MONTANT TOTAL"
)

// BuildMonthlyExport turns the entries of a period into the export table:
// one row per entry, a blank separator, then the four summary rows.
func BuildMonthlyExport(period model.Period, entries []model.TimeEntry, dailyRate decimal.Decimal) (model.MonthlyExport, error) {
	if len(entries) == 0 {
		return model.MonthlyExport{}, ErrNoEntries
	}

	summary := timecalc.Summarize(entries, dailyRate)

	rows := make([]model.ExportRow, 0, len(entries)+5)
	for _, e := range entries {
		rows = append(rows, model.ExportRow{
			Date:        FormatDate(e.Date),
			RouteNumber: e.RouteNumber,
			PointCount:  pointCell(e.PointCount),
			WorkerName:  e.WorkerName,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			Hours:       FormatHours(e.WorkedHours),
		})
	}

	rows = append(rows,
		model.ExportRow{},
		model.ExportRow{
			Date:       labelTotals,
			PointCount: summary.TotalPoints,
			Hours:      FormatHours(summary.TotalHours),
		},
		model.ExportRow{
			Date:        labelWorkedDays,
			RouteNumber: summary.WorkedDays,
		},
		model.ExportRow{
			Date:        labelDailyRate,
			RouteNumber: FormatCurrency(dailyRate),
		},
		model.ExportRow{
			Date:        labelAmount,
			RouteNumber: FormatCurrency(summary.TotalAmount),
		},
	)

	return model.MonthlyExport{
		SheetName:    period.Label(),
		FileBaseName: fmt.Sprintf("Pointage_%s_%d", period.MonthName(), period.Year),
		Columns:      append([]string(nil), columns...),
		ColumnWidths: append([]float64(nil), columnWidths...),
		Rows:         rows,
	}, nil
}

// FormatDate renders an ISO date as DD/MM/YYYY. Unparsable dates are
// returned as entered.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return raw
	}
	return t.Format("02/01/2006")
}

func FormatHours(hours float64) string {
	if hours <= 0 {
		return "0h"
	}
	return strconv.FormatFloat(hours, 'f', 1, 64) + "h"
}

func FormatCurrency(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " €"
}

func pointCell(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	return raw
}
