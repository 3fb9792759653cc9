package shared

import "time"

// Window is a half-open [Start, End) time interval. A nil bound means the
// interval is unbounded on that side.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// WindowBetween builds a window from two concrete instants.
func WindowBetween(start, end time.Time) Window {
	return Window{Start: &start, End: &end}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && !t.Before(*w.End) {
		return false
	}
	return true
}

// Through reports whether t is at or before the cutoff. Balance queries are
// cumulative and inclusive of the cutoff day.
func Through(t, cutoff time.Time) bool {
	return !t.After(cutoff)
}
