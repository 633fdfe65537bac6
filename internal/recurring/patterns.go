package recurring

import (
	"time"
)

// DayCalculator generates recurrences a fixed number of calendar days apart.
// Days are added on the calendar so the wall-clock time survives DST changes.
type DayCalculator struct {
	Days int
}

func (c DayCalculator) NextOccurrence(after time.Time) time.Time {
	return after.AddDate(0, 0, c.Days)
}

// MonthCalculator generates recurrences a fixed number of months apart.
//
// Unlike time.AddDate, a day that does not exist in the target month is clamped to the
// last day of that month: Jan 31 + 1 month is Feb 28 (or 29), never Mar 3.
type MonthCalculator struct {
	Months int
}

func (c MonthCalculator) NextOccurrence(after time.Time) time.Time {
	return addMonthsClamped(after, c.Months)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
