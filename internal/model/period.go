package model

import (
	"fmt"
	"time"
)

const DailyRateKey = "prix_journee"

var monthNames = [...]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("month %d out of range", int(p.Month))
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("year %d out of range", p.Year)
	}
	return nil
}

// StorageKey keeps the zero-based month index used by the browser store,
// so migrated blobs load under the same key.
func (p Period) StorageKey() string {
	return fmt.Sprintf("pointage_%d_%d", p.Year, int(p.Month)-1)
}

func (p Period) MonthName() string {
	return monthNames[p.Month-1]
}

// Label is the sheet title, e.g. "Mars 2024".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.MonthName(), p.Year)
}
