// Package finance computes budget periods and the derived metrics of a
// financial summary. Every function is pure: inputs are value snapshots and
// nothing is retained or mutated, so callers may invoke them concurrently.
package finance

import (
	"time"

	"fintrack/internal/core"
)

const endOfDayNanos = 999 * int(time.Millisecond)

// Window is an inclusive [Start, End] range. Start is at 00:00:00.000 and End
// at 23:59:59.999, both UTC.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether Start <= t <= End.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days lists the calendar dates covered by the window.
func (w Window) Days() []core.Date {
	first := core.DateOf(w.Start)
	last := core.DateOf(w.End)
	var days []core.Date
	for d := first; !d.After(last.Time); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// MonthWindow resolves the custom budget month containing ref.
//
// The month starts on settings.StartOfMonth of ref's month when ref's day is
// at or past the anchor, otherwise on the anchor of the previous month. Day
// overflow is normalized (anchor 31 in a 30-day month lands on the 1st of the
// next month). The window ends at end-of-day before the anchor of the
// following month.
func MonthWindow(settings core.Settings, ref time.Time) Window {
	today := core.DateOf(ref)
	anchor := settings.StartOfMonth

	month := today.Month()
	if today.Day() < anchor {
		month--
	}
	start := time.Date(today.Year(), month, anchor, 0, 0, 0, 0, time.UTC)
	end := time.Date(start.Year(), start.Month()+1, anchor-1, 23, 59, 59, endOfDayNanos, time.UTC)

	return Window{Start: start, End: end}
}

// WeekWindow resolves the 7-day budget week containing ref, starting on the
// weekday settings.StartOfWeek (0 = Sunday).
func WeekWindow(settings core.Settings, ref time.Time) Window {
	today := core.DateOf(ref)
	daysFromStart := (int(today.Weekday()) - settings.StartOfWeek + 7) % 7

	start := today.AddDays(-daysFromStart)
	return Window{
		Start: startOfDay(start),
		End:   endOfDay(start.AddDays(6)),
	}
}

func startOfDay(d core.Date) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(d core.Date) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, endOfDayNanos, time.UTC)
}
