package domain

import "time"

// DateLayout is the calendar date format used for project windows.
const DateLayout = "2006/01/02"

// Window is a closed calendar date interval [Opening, Closing].
type Window struct {
	Opening time.Time
	Closing time.Time
}

// Valid reports whether both ends are set and Opening is not after Closing.
func (w Window) Valid() bool {
	if w.Opening.IsZero() || w.Closing.IsZero() {
		return false
	}
	return !truncateDay(w.Opening).After(truncateDay(w.Closing))
}

// Contains reports whether the calendar day of t lies within the window.
func (w Window) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(truncateDay(w.Opening)) && !day.After(truncateDay(w.Closing))
}

// Overlaps reports whether two closed windows share at least one day. It is
// symmetric: !(a.Closing < b.Opening || a.Opening > b.Closing).
func Overlaps(a, b Window) bool {
	return !(truncateDay(a.Closing).Before(truncateDay(b.Opening)) || truncateDay(a.Opening).After(truncateDay(b.Closing)))
}

// ParseDate parses a yyyy/mm/dd date in UTC.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
