// Package widget owns the calendar panel state: the cursor date, the active
// view mode and the current event buckets. All mutation goes through the
// Controller so the state machine is testable without HTTP or a display.
package widget

import (
	"context"
	"sync"
	"time"

	appLog "calpane/internal/log"
	"calpane/internal/model"
	"calpane/internal/view"
)

// Mode selects which of the three views is active.
type Mode string

const (
	ModeMonth  Mode = "month"
	ModeWeek   Mode = "week"
	ModeAgenda Mode = "agenda"
)

// ParseMode maps a query/flag string to a Mode, defaulting to month.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeWeek:
		return ModeWeek
	case ModeAgenda:
		return ModeAgenda
	default:
		return ModeMonth
	}
}

// Fetcher is the transport the controller pulls raw events through.
type Fetcher interface {
	FetchRange(ctx context.Context, start, end time.Time) ([]model.RawEvent, error)
}

// Options configures a Controller.
type Options struct {
	// Location is the display timezone; nil means host local.
	Location *time.Location
	// PreviewLimit caps month-view cell previews; 0 means unlimited.
	PreviewLimit int
	// WeekPreviewLimit caps week-view cell previews; 0 means unlimited.
	WeekPreviewLimit int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Snapshot is the render model handed to the web layer. It is a value:
// later refreshes never mutate an already returned snapshot.
type Snapshot struct {
	Mode     Mode
	Subtitle string

	// Cells is the grid for month (42) or week (7) mode; nil in agenda mode.
	Cells []view.DayCell
	// Agenda is the group list for agenda mode; nil otherwise.
	Agenda []view.AgendaGroup

	// FetchedAt is when the underlying events were applied.
	FetchedAt time.Time
}

// Controller is the single owner of widget state. Methods are safe for
// concurrent use; fetches run outside the lock and a stale fetch (one that
// was superseded by newer navigation) is discarded instead of overwriting
// fresher state.
type Controller struct {
	fetcher Fetcher
	loc     *time.Location
	now     func() time.Time

	previewLimit     int
	weekPreviewLimit int

	mu        sync.Mutex
	cursor    time.Time
	mode      Mode
	buckets   map[string][]model.Event
	fetchedAt time.Time
	seq       uint64
}

// New builds a Controller anchored to the first day of the current month.
func New(fetcher Fetcher, opts Options) *Controller {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &Controller{
		fetcher:          fetcher,
		loc:              loc,
		now:              now,
		previewLimit:     opts.PreviewLimit,
		weekPreviewLimit: opts.WeekPreviewLimit,
		mode:             ModeMonth,
		buckets:          map[string][]model.Event{},
	}
	c.cursor = view.MonthStart(c.now().In(loc))
	return c
}

// Cursor returns the current cursor date.
func (c *Controller) Cursor() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// ActiveMode returns the current view mode.
func (c *Controller) ActiveMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Window is the fetch/render range for the current cursor and mode: the
// 42-day month grid in month and agenda modes, the 7-day week otherwise.
func (c *Controller) Window() view.Window {
	c.mu.Lock()
	cursor, mode := c.cursor, c.mode
	c.mu.Unlock()
	return windowFor(cursor, mode, c.loc)
}

func windowFor(cursor time.Time, mode Mode, loc *time.Location) view.Window {
	if mode == ModeWeek {
		return view.WeekWindow(cursor)
	}
	return view.MonthGridWindow(cursor.Year(), cursor.Month(), loc)
}

// Refresh refetches the current window and rebuilds the buckets.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	cursor, mode := c.cursor, c.mode
	c.mu.Unlock()
	return c.refreshTo(ctx, cursor, mode)
}

// refreshTo fetches the window for a proposed cursor/mode and commits
// cursor, mode and buckets together on success. A failed fetch leaves all
// three untouched, so a navigation whose fetch fails does not move the
// panel. A fetch that loses the race against a newer one is dropped
// silently (the newer data wins).
func (c *Controller) refreshTo(ctx context.Context, cursor time.Time, mode Mode) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	window := windowFor(cursor, mode, c.loc)
	raw, err := c.fetcher.FetchRange(ctx, window.Start, window.End)
	if err != nil {
		return err
	}

	res := view.Normalize(raw, c.loc)
	if res.Dropped > 0 {
		appLog.Warn("dropped events without a calendar day", "count", res.Dropped)
	}

	if !c.apply(seq, cursor, mode, view.ByDay(res.Events)) {
		appLog.Debug("discarding superseded fetch", "seq", seq)
	}
	return nil
}

// apply installs a completed refresh if seq still identifies the newest one.
// It reports whether the result was applied.
func (c *Controller) apply(seq uint64, cursor time.Time, mode Mode, buckets map[string][]model.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return false
	}
	c.cursor = cursor
	c.mode = mode
	c.buckets = buckets
	c.fetchedAt = c.now().In(c.loc)
	return true
}

// Prev moves one month (month/agenda) or one week back.
func (c *Controller) Prev(ctx context.Context) error {
	cursor, mode := c.stepped(-1)
	return c.refreshTo(ctx, cursor, mode)
}

// Next moves one month (month/agenda) or one week forward.
func (c *Controller) Next(ctx context.Context) error {
	cursor, mode := c.stepped(1)
	return c.refreshTo(ctx, cursor, mode)
}

func (c *Controller) stepped(dir int) (time.Time, Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeWeek {
		return view.WeekStart(c.cursor).AddDate(0, 0, 7*dir), c.mode
	}
	return view.AddMonths(c.cursor, dir), c.mode
}

// Today moves to the current month's first day (month/agenda) or the
// current week's Sunday.
func (c *Controller) Today(ctx context.Context) error {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()

	now := c.now().In(c.loc)
	cursor := view.MonthStart(now)
	if mode == ModeWeek {
		cursor = view.WeekStart(now)
	}
	return c.refreshTo(ctx, cursor, mode)
}

// SetMode switches the active view, keeping the cursor. A refresh runs
// because the fetch window differs between week and month-grid shapes.
func (c *Controller) SetMode(ctx context.Context, mode Mode) error {
	c.mu.Lock()
	cursor := c.cursor
	c.mu.Unlock()
	return c.refreshTo(ctx, cursor, mode)
}

// Snapshot builds the render model for the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().In(c.loc)
	snap := Snapshot{Mode: c.mode, FetchedAt: c.fetchedAt}

	switch c.mode {
	case ModeWeek:
		snap.Subtitle = view.WeekTitle(c.cursor)
		snap.Cells = view.BuildWeekCells(c.cursor, now, c.buckets, c.weekPreviewLimit)
	case ModeAgenda:
		snap.Subtitle = view.AgendaTitle(c.cursor)
		snap.Agenda = view.BuildAgenda(c.cursor, c.buckets)
	default:
		snap.Subtitle = view.MonthTitle(c.cursor)
		snap.Cells = view.BuildMonthCells(c.cursor, now, c.buckets, c.previewLimit)
	}
	return snap
}

// Day returns the drawer data for one day key: the bucket in sorted order.
// A missing key yields an empty slice.
func (c *Controller) Day(key string) []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.buckets[key]
	out := make([]model.Event, len(events))
	copy(out, events)
	return out
}

// Events returns the full normalized event set of the last applied fetch in
// bucket order, for export.
func (c *Controller) Events() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []model.Event
	for _, key := range view.SortedKeys(c.buckets) {
		out = append(out, c.buckets[key]...)
	}
	return out
}
