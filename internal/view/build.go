package view

import (
	"strings"
	"time"

	"calpane/internal/model"
)

// noEventsPreview is the placeholder preview for empty day cells.
const noEventsPreview = "No events"

// emptyAgendaLabel is the single placeholder group an empty agenda renders.
const emptyAgendaLabel = "No events this month"

// DayCell describes one grid cell of the month or week view.
type DayCell struct {
	// Date is the represented calendar day at local midnight.
	Date time.Time
	// Key is the cell's day key (YYYY-MM-DD).
	Key string
	// Muted marks days outside the cursor's month (month view only).
	Muted bool
	// Today marks the cell matching the current date.
	Today bool

	EventCount int
	// Preview is the newline-joined list of event labels, capped by the
	// builder's preview limit, or the "No events" placeholder.
	Preview string
	// Empty is true when the cell has no events (the preview is then only
	// the placeholder text).
	Empty bool
}

// AgendaGroup is one day's section of the agenda view.
type AgendaGroup struct {
	Key       string
	DateLabel string
	Events    []model.Event
	// Placeholder marks the synthetic group emitted when the month has no
	// events at all.
	Placeholder bool
}

// BuildMonthCells lays out the 6x7 grid for the cursor's month. Cells outside
// the month are muted; each cell previews up to previewLimit event labels
// (0 means unlimited).
func BuildMonthCells(cursor, now time.Time, buckets map[string][]model.Event, previewLimit int) []DayCell {
	window := MonthGridWindow(cursor.Year(), cursor.Month(), cursor.Location())
	todayKey := DayKey(now)

	cells := make([]DayCell, 0, GridDays)
	for i := 0; i < GridDays; i++ {
		date := window.Start.AddDate(0, 0, i)
		cell := buildCell(date, todayKey, buckets, previewLimit)
		cell.Muted = date.Month() != cursor.Month() || date.Year() != cursor.Year()
		cells = append(cells, cell)
	}
	return cells
}

// BuildWeekCells lays out the 7 cells of the week containing the cursor.
func BuildWeekCells(cursor, now time.Time, buckets map[string][]model.Event, previewLimit int) []DayCell {
	window := WeekWindow(cursor)
	todayKey := DayKey(now)

	cells := make([]DayCell, 0, 7)
	for i := 0; i < 7; i++ {
		date := window.Start.AddDate(0, 0, i)
		cells = append(cells, buildCell(date, todayKey, buckets, previewLimit))
	}
	return cells
}

func buildCell(date time.Time, todayKey string, buckets map[string][]model.Event, previewLimit int) DayCell {
	key := DayKey(date)
	events := buckets[key]

	cell := DayCell{
		Date:       date,
		Key:        key,
		Today:      key == todayKey,
		EventCount: len(events),
	}
	if len(events) == 0 {
		cell.Preview = noEventsPreview
		cell.Empty = true
		return cell
	}

	shown := events
	if previewLimit > 0 && len(shown) > previewLimit {
		shown = shown[:previewLimit]
	}
	lines := make([]string, 0, len(shown))
	for i := range shown {
		lines = append(lines, shown[i].Label())
	}
	cell.Preview = strings.Join(lines, "\n")
	return cell
}

// BuildAgenda lists the cursor month's days that have events, in ascending
// day order. Days the grid fetched from neighboring months are filtered out.
// A month with no qualifying events yields exactly one placeholder group,
// never an empty list.
func BuildAgenda(cursor time.Time, buckets map[string][]model.Event) []AgendaGroup {
	monthPrefix := cursor.Format("2006-01") + "-"

	var groups []AgendaGroup
	for _, key := range SortedKeys(buckets) {
		if !strings.HasPrefix(key, monthPrefix) {
			continue
		}
		events := buckets[key]
		if len(events) == 0 {
			continue
		}
		groups = append(groups, AgendaGroup{
			Key:       key,
			DateLabel: agendaDateLabel(key, cursor.Location()),
			Events:    events,
		})
	}

	if len(groups) == 0 {
		groups = append(groups, AgendaGroup{DateLabel: emptyAgendaLabel, Placeholder: true})
	}
	return groups
}

// agendaDateLabel renders a day key like "Tuesday, Mar 5, 2024". Keys that
// fail to parse (backend day hints are used verbatim) fall back to the raw
// key text.
func agendaDateLabel(key string, loc *time.Location) string {
	t, err := time.ParseInLocation(dayKeyLayout, key, loc)
	if err != nil {
		return key
	}
	return t.Format("Monday, Jan 2, 2006")
}

// MonthTitle renders the month-view subtitle, e.g. "March 2024".
func MonthTitle(cursor time.Time) string {
	return cursor.Format("January 2006")
}

// WeekTitle renders the week-view subtitle as the inclusive day span,
// e.g. "2024-03-03 → 2024-03-09".
func WeekTitle(cursor time.Time) string {
	start := WeekStart(cursor)
	return DayKey(start) + " → " + DayKey(start.AddDate(0, 0, 6))
}

// AgendaTitle renders the agenda subtitle, e.g. "Agenda · March 2024".
func AgendaTitle(cursor time.Time) string {
	return "Agenda · " + MonthTitle(cursor)
}
