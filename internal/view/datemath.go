// Package view implements the calendar view-model core: date-grid math,
// event normalization, day grouping and the per-view render models.
package view

import "time"

// dayKeyLayout is the canonical local-day key format.
const dayKeyLayout = "2006-01-02"

// GridDays is the fixed month-grid size: 6 rows of 7 columns.
const GridDays = 42

// Window is a half-open date range [Start, End). Both bounds sit at local
// midnight in the display timezone.
type Window struct {
	Start time.Time
	End   time.Time
}

// DayKey formats a time as its local-day key (YYYY-MM-DD), using the fields
// of t in its own location. No timezone conversion happens here; callers
// normalize into the display zone first.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// Midnight truncates t to local midnight in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthStart returns the first day of t's month at local midnight.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths moves a month cursor by n months, pinning the day to the 1st
// before the month changes. Adding to the raw cursor date would let e.g.
// Jan 31 + 1 month normalize into March.
func AddMonths(cursor time.Time, n int) time.Time {
	return time.Date(cursor.Year(), cursor.Month()+time.Month(n), 1, 0, 0, 0, 0, cursor.Location())
}

// MonthGridWindow returns the window covering the 6x7 month grid for the
// given month: it starts on the Sunday on/before the 1st and spans exactly
// GridDays days.
func MonthGridWindow(year int, month time.Month, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	return Window{Start: start, End: start.AddDate(0, 0, GridDays)}
}

// WeekWindow returns the 7-day window starting on the Sunday on/before the
// anchor date at local midnight.
func WeekWindow(anchor time.Time) Window {
	start := Midnight(anchor).AddDate(0, 0, -int(anchor.Weekday()))
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// WeekStart is the Sunday on/before the anchor date at local midnight.
func WeekStart(anchor time.Time) time.Time {
	return WeekWindow(anchor).Start
}

// Days returns the number of calendar days the window spans. Counting by
// AddDate keeps the result right across DST transitions, where not every day
// is 24 hours long.
func (w Window) Days() int {
	days := 0
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}
