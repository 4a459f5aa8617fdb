package recurrence

import (
	"time"

	"github.com/hray3182/catcare/internal/models"
)

// AddPeriod advances t by one period of freq, keeping the wall-clock time of day.
// Monthly steps clamp to the last day of the target month, so Jan 31 becomes
// Feb 28 (or Feb 29 in a leap year).
func AddPeriod(t time.Time, freq models.Frequency) (time.Time, bool) {
	switch freq {
	case models.FrequencyDaily:
		return t.AddDate(0, 0, 1), true
	case models.FrequencyWeekly:
		return t.AddDate(0, 0, 7), true
	case models.FrequencyMonthly:
		return addMonths(t, 1), true
	default:
		return time.Time{}, false
	}
}

func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	// Normalize via the first of the target month so December rolls into January.
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

const horizonMonths = 3

// DefaultHorizon is how far ahead recurring instances are materialized.
func DefaultHorizon(now time.Time) time.Time {
	return addMonths(now, horizonMonths)
}

// day identifies a calendar day in a fixed location.
type day struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time, loc *time.Location) day {
	y, m, d := t.In(loc).Date()
	return day{year: y, month: m, day: d}
}
