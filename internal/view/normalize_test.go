package view

import (
	"testing"
	"time"

	"calpane/internal/model"
)

func TestNormalizeTitleFallback(t *testing.T) {
	t.Parallel()

	res := Normalize([]model.RawEvent{
		{Start: "2024-03-05T17:00:00Z"},
		{Title: "   ", Start: "2024-03-05T18:00:00Z"},
		{Title: "Standup", Start: "2024-03-05T19:00:00Z"},
	}, time.UTC)

	if len(res.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(res.Events))
	}
	if got := res.Events[0].Title; got != "(No title)" {
		t.Errorf("missing title normalized to %q, want (No title)", got)
	}
	if got := res.Events[1].Title; got != "(No title)" {
		t.Errorf("blank title normalized to %q, want (No title)", got)
	}
	if got := res.Events[2].Title; got != "Standup" {
		t.Errorf("title = %q, want Standup", got)
	}
}

func TestNormalizeDayKeyDerivation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  model.RawEvent
		want string
	}{
		{"from start", model.RawEvent{Title: "a", Start: "2024-03-05T17:00:00Z"}, "2024-03-05"},
		{"start wins over day hint", model.RawEvent{Title: "b", Start: "2024-03-05T17:00:00Z", Day: "2024-03-09"}, "2024-03-05"},
		{"day hint fallback", model.RawEvent{Title: "c", Day: "2024-03-09"}, "2024-03-09"},
		{"unparseable start falls back to hint", model.RawEvent{Title: "d", Start: "not-a-date", Day: "2024-03-09"}, "2024-03-09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize([]model.RawEvent{tt.raw}, time.UTC)
			if len(res.Events) != 1 {
				t.Fatalf("got %d events, want 1", len(res.Events))
			}
			if got := res.Events[0].DayKey; got != tt.want {
				t.Errorf("DayKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeDropsUndisplayableEvents(t *testing.T) {
	t.Parallel()

	res := Normalize([]model.RawEvent{
		{Title: "keep", Start: "2024-03-05T17:00:00Z"},
		{Title: "no day at all"},
		{Title: "garbage start", Start: "???"},
	}, time.UTC)

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}
	if res.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", res.Dropped)
	}
}

func TestNormalizeDayKeyUsesDisplayZone(t *testing.T) {
	t.Parallel()

	// 23:30 UTC on March 5 is already March 6 in UTC+2.
	loc := time.FixedZone("UTC+2", 2*60*60)
	res := Normalize([]model.RawEvent{{Title: "late", Start: "2024-03-05T23:30:00Z"}}, loc)

	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}
	if got := res.Events[0].DayKey; got != "2024-03-06" {
		t.Errorf("DayKey = %q, want 2024-03-06", got)
	}
}

func TestNormalizeTimeLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  model.RawEvent
		want string
	}{
		{"all day", model.RawEvent{Title: "a", AllDay: true, Day: "2024-03-05"}, "All day"},
		{"start only", model.RawEvent{Title: "b", Start: "2024-03-05T17:00:00Z"}, "17:00"},
		{"start and end", model.RawEvent{Title: "c", Start: "2024-03-05T17:00:00Z", End: "2024-03-05T18:30:00Z"}, "17:00–18:30"},
		{"timed without start", model.RawEvent{Title: "d", Day: "2024-03-05"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize([]model.RawEvent{tt.raw}, time.UTC)
			if len(res.Events) != 1 {
				t.Fatalf("got %d events, want 1", len(res.Events))
			}
			if got := res.Events[0].TimeLabel; got != tt.want {
				t.Errorf("TimeLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeSortKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  model.RawEvent
		want string
	}{
		{"all day", model.RawEvent{Title: "a", AllDay: true, Day: "2024-03-05"}, "0"},
		{"timed", model.RawEvent{Title: "b", Start: "2024-03-05T09:05:00Z"}, "10905"},
		{"timed without start degrades to all-day key", model.RawEvent{Title: "c", Day: "2024-03-05"}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize([]model.RawEvent{tt.raw}, time.UTC)
			if len(res.Events) != 1 {
				t.Fatalf("got %d events, want 1", len(res.Events))
			}
			if got := res.Events[0].SortKey; got != tt.want {
				t.Errorf("SortKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePreservesInputOrder(t *testing.T) {
	t.Parallel()

	res := Normalize([]model.RawEvent{
		{Title: "third", Start: "2024-03-05T19:00:00Z"},
		{Title: "first", Start: "2024-03-05T07:00:00Z"},
		{Title: "second", Start: "2024-03-05T08:00:00Z"},
	}, time.UTC)

	want := []string{"third", "first", "second"}
	for i, w := range want {
		if res.Events[i].Title != w {
			t.Errorf("events[%d].Title = %q, want %q", i, res.Events[i].Title, w)
		}
	}
}
