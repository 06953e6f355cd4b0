// Package calendar implements the restartable multi-date picker used when
// choosing inspection availability dates. It is pure state: the rendering
// layer draws whatever the model computes.
package calendar

import (
	"sort"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Cursor identifies the month the picker is showing
type Cursor struct {
	Year  int
	Month time.Month
}

// CursorFor returns the cursor for the month containing t
func CursorFor(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Next returns the cursor one month forward
func (c Cursor) Next() Cursor {
	t := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Prev returns the cursor one month back
func (c Cursor) Prev() Cursor {
	t := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// DaysInMonth computes the visible grid for a month: leading nil padding
// cells for the weekday offset of day 1 (weeks start on Sunday), then one
// entry per day. Calling it twice with the same cursor produces identical
// output.
func DaysInMonth(c Cursor) []*time.Time {
	first := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	grid := make([]*time.Time, 0, int(first.Weekday())+daysInMonth)
	for i := 0; i < int(first.Weekday()); i++ {
		grid = append(grid, nil)
	}
	for day := 1; day <= daysInMonth; day++ {
		d := time.Date(c.Year, c.Month, day, 0, 0, 0, 0, time.UTC)
		grid = append(grid, &d)
	}
	return grid
}

// IsPast reports whether d falls strictly before today's calendar date.
// Time-of-day is ignored on both sides; past dates are not selectable.
func IsPast(d, today time.Time) bool {
	return dateKey(d) < dateKey(today)
}

// Selection is a deduplicated set of calendar dates, keyed by
// year-month-day rather than time instant
type Selection struct {
	dates map[string]time.Time
}

// NewSelection builds a selection from zero or more initial dates
func NewSelection(dates ...time.Time) Selection {
	s := Selection{dates: make(map[string]time.Time, len(dates))}
	for _, d := range dates {
		s.dates[dateKey(d)] = truncate(d)
	}
	return s
}

// Toggle adds the date if absent and removes it if present. Toggling the
// same date twice returns to the original selection.
func (s Selection) Toggle(d time.Time) Selection {
	next := s.clone()
	key := dateKey(d)
	if _, ok := next.dates[key]; ok {
		delete(next.dates, key)
	} else {
		next.dates[key] = truncate(d)
	}
	return next
}

// Contains reports membership by calendar value
func (s Selection) Contains(d time.Time) bool {
	_, ok := s.dates[dateKey(d)]
	return ok
}

// Len returns the number of selected dates
func (s Selection) Len() int {
	return len(s.dates)
}

// Dates returns the selected dates sorted ascending
func (s Selection) Dates() []time.Time {
	out := make([]time.Time, 0, len(s.dates))
	for _, d := range s.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Strings returns the selected dates as sorted YYYY-MM-DD strings, the
// serialization used on the wire
func (s Selection) Strings() []string {
	dates := s.Dates()
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return out
}

func (s Selection) clone() Selection {
	next := Selection{dates: make(map[string]time.Time, len(s.dates))}
	for k, v := range s.dates {
		next.dates[k] = v
	}
	return next
}

// Session is the scoped-edit staging copy held while the picker modal is
// open. Toggles mutate only the staged copy; Save commits it, Cancel (or any
// other exit path) discards every change made since Open.
type Session struct {
	committed Selection
	staged    Selection
	open      bool
}

// NewSession starts a session over an existing committed selection
func NewSession(committed Selection) *Session {
	return &Session{committed: committed}
}

// Open begins an edit, staging a copy of the committed selection
func (s *Session) Open() {
	s.staged = s.committed.clone()
	s.open = true
}

// Toggle flips a date in the staged copy. No-op when the session is not open.
func (s *Session) Toggle(d time.Time) {
	if !s.open {
		return
	}
	s.staged = s.staged.Toggle(d)
}

// Staged returns the in-progress selection
func (s *Session) Staged() Selection {
	if !s.open {
		return s.committed
	}
	return s.staged
}

// Save commits the staged changes and closes the session
func (s *Session) Save() Selection {
	if s.open {
		s.committed = s.staged
		s.open = false
	}
	return s.committed
}

// Cancel discards the staged changes and closes the session
func (s *Session) Cancel() Selection {
	s.open = false
	return s.committed
}

// Committed returns the last saved selection
func (s *Session) Committed() Selection {
	return s.committed
}

func dateKey(d time.Time) string {
	return d.Format(DateLayout)
}

func truncate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
