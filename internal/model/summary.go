package model

import "github.com/shopspring/decimal"

// MonthlySummary is derived from the entries of one period and never stored.
type MonthlySummary struct {
	TotalHours  float64         `json:"totalHours"`
	TotalPoints int64           `json:"totalPoints"`
	WorkedDays  int             `json:"workedDays"`
	DailyRate   decimal.Decimal `json:"dailyRate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type PeriodState struct {
	Year    int            `json:"year"`
	Month   int            `json:"month"`
	Label   string         `json:"label"`
	Entries []TimeEntry    `json:"entries"`
	Summary MonthlySummary `json:"summary"`
}
