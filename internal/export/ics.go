// Package export serializes the currently fetched events as an iCalendar
// feed, so other tools can subscribe to the same window the panel shows.
package export

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"calpane/internal/model"
)

const productID = "-//calpane//calendar panel//EN"

// WriteICS serializes events to w as a VCALENDAR. All-day events become
// date-valued entries spanning one day; timed events keep their instants.
// Events without a usable start (day-hint only) are emitted as all-day
// entries on their day key so nothing silently disappears from the feed.
func WriteICS(w io.Writer, events []model.Event, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	stamp := time.Now().In(loc)
	for i, ev := range events {
		allDay := ev.AllDay || !ev.HasStart()

		var day time.Time
		if allDay {
			var err error
			day, err = time.ParseInLocation("2006-01-02", ev.DayKey, loc)
			if err != nil {
				// Unparseable backend day hint; skip rather than emit a
				// VEVENT with no start.
				continue
			}
		}

		ve := cal.AddEvent(fmt.Sprintf("%s-%d@calpane", ev.DayKey, i))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(ev.Title)

		if allDay {
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		} else {
			ve.SetStartAt(ev.Start)
			if !ev.End.IsZero() {
				ve.SetEndAt(ev.End)
			} else {
				ve.SetEndAt(ev.Start.Add(time.Hour))
			}
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}
