package model

import "time"

// RawEvent is the untrusted wire shape returned by the script backend for a
// single occurrence. Start/End are ISO 8601 instants (UTC-normalized by the
// backend) and may be empty; Day is an optional YYYY-MM-DD hint used when
// Start is absent.
type RawEvent struct {
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end"`
	AllDay bool   `json:"allDay"`
	Day    string `json:"day,omitempty"`
}

// Event is the normalized, display-ready form of a fetched calendar event.
// The script backend already expands recurrences, so one Event is always one
// concrete occurrence. Events are built once per fetch and never mutated.
type Event struct {
	// Title is never empty; missing titles are replaced with a placeholder
	// during normalization.
	Title string

	// Start / End are the parsed instants in the display timezone. Either
	// may be the zero time when the backend omitted the field or sent an
	// unparseable value.
	Start time.Time
	End   time.Time

	AllDay bool

	// DayKey is the local calendar day (YYYY-MM-DD) the event is bucketed
	// under. Derived from Start when present, else taken verbatim from the
	// backend's day hint.
	DayKey string

	// TimeLabel is the human-readable time portion, e.g. "All day",
	// "09:00" or "09:00–10:30". Empty for timed events with no usable start.
	TimeLabel string

	// SortKey orders events within a day by plain string comparison:
	// "0" for all-day events, "1"+HHMM for timed ones, so all-day entries
	// sort first and timed entries sort chronologically.
	SortKey string
}

// HasStart reports whether the event carries a usable start instant.
func (e *Event) HasStart() bool {
	return !e.Start.IsZero()
}

// Label is the one-line rendering used in previews and agenda rows.
func (e *Event) Label() string {
	if e.TimeLabel == "" {
		return e.Title
	}
	return e.TimeLabel + " · " + e.Title
}
