package timecalc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurpe/pointage/internal/model"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses "HH:MM". Seconds ("HH:MM:SS") are accepted and dropped.
func ParseClock(raw string) (Clock, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("invalid time %q", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("invalid minute in %q", raw)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// WorkedHours returns the hours between start and end on the same nominal
// day. An end earlier than the start yields zero: shifts crossing midnight
// are not wrapped. Missing or unparsable times also yield zero.
func WorkedHours(start, end string) float64 {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return 0
	}
	s, err := ParseClock(start)
	if err != nil {
		return 0
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0
	}
	minutes := e.Minutes() - s.Minutes()
	if minutes < 0 {
		return 0
	}
	return float64(minutes) / 60
}

// ParsePoints reads the leading integer of a free-text point count, the
// way the form field was read: "12", " 12 colis" and "+12" give 12, text
// without leading digits gives 0. A count too large for int64 also gives 0,
// where a browser would have kept an approximate float.
func ParsePoints(raw string) int64 {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	n, err := strconv.ParseInt(raw[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Summarize aggregates the entries of one period. It is recomputed on every
// read; entry lists are at most a month long.
func Summarize(entries []model.TimeEntry, dailyRate decimal.Decimal) model.MonthlySummary {
	summary := model.MonthlySummary{DailyRate: dailyRate}
	for _, e := range entries {
		summary.TotalHours += e.WorkedHours
		summary.TotalPoints += ParsePoints(e.PointCount)
		if e.IsWorkedDay() {
			summary.WorkedDays++
		}
	}
	summary.TotalAmount = dailyRate.Mul(decimal.NewFromInt(int64(summary.WorkedDays)))
	return summary
}

// ParseRate reads a stored daily rate. Empty or invalid values count as zero.
func ParseRate(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return rate
}
