package view

import (
	"strings"
	"time"

	"calpane/internal/model"
)

// placeholderTitle replaces missing or blank event titles.
const placeholderTitle = "(No title)"

// allDayLabel is the time label shown for all-day events.
const allDayLabel = "All day"

// timeLabelLayout renders event times for previews and the agenda.
const timeLabelLayout = "15:04"

// NormalizeResult carries the normalized events plus data-quality counters.
type NormalizeResult struct {
	Events []model.Event

	// Dropped counts raw events with neither a parseable start nor a day
	// hint. Such events have no calendar day to live on, so they are
	// discarded rather than bucketed under an empty key.
	Dropped int
}

// Normalize converts raw backend events into display-ready Events in the
// given timezone. Output order matches input order; sorting happens later,
// per day bucket.
func Normalize(raw []model.RawEvent, loc *time.Location) NormalizeResult {
	if loc == nil {
		loc = time.Local
	}

	res := NormalizeResult{Events: make([]model.Event, 0, len(raw))}
	for _, r := range raw {
		ev, ok := normalizeOne(r, loc)
		if !ok {
			res.Dropped++
			continue
		}
		res.Events = append(res.Events, ev)
	}
	return res
}

func normalizeOne(r model.RawEvent, loc *time.Location) (model.Event, bool) {
	ev := model.Event{
		Title:  strings.TrimSpace(r.Title),
		AllDay: r.AllDay,
	}
	if ev.Title == "" {
		ev.Title = placeholderTitle
	}

	start, startOK := parseInstant(r.Start, loc)
	end, endOK := parseInstant(r.End, loc)
	if startOK {
		ev.Start = start
	}
	if endOK {
		ev.End = end
	}

	// Day key: local day of the start instant, else the backend's hint.
	switch {
	case startOK:
		ev.DayKey = DayKey(start)
	case r.Day != "":
		ev.DayKey = r.Day
	default:
		return model.Event{}, false
	}

	ev.TimeLabel = timeLabel(ev.AllDay, start, startOK, end, endOK)
	ev.SortKey = sortKey(ev.AllDay, start, startOK)
	return ev, true
}

// parseInstant parses an ISO 8601 instant and converts it into the display
// zone. Date-only values are accepted as local midnight.
func parseInstant(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	if t, err := time.ParseInLocation(dayKeyLayout, s, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func timeLabel(allDay bool, start time.Time, startOK bool, end time.Time, endOK bool) string {
	if allDay {
		return allDayLabel
	}
	if !startOK {
		// Timed event without a usable start; nothing sensible to show.
		return ""
	}
	label := start.Format(timeLabelLayout)
	if endOK {
		label += "–" + end.Format(timeLabelLayout)
	}
	return label
}

// sortKey derives the within-day ordering key: "0" sorts all-day events
// before every "1"+HHMM timed key, and HHMM keeps timed events
// chronological under plain string comparison. A timed event without a
// usable start degrades to the all-day key rather than formatting a zero
// time.
func sortKey(allDay bool, start time.Time, startOK bool) string {
	if allDay || !startOK {
		return "0"
	}
	return "1" + start.Format("1504")
}
