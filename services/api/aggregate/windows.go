package aggregate

import (
	"fmt"
	"time"
)

// Rain accumulations are anchored on a 07:00 day boundary: a "rain day" runs
// from 07:00 to the next day's 07:00.
const dayBoundaryHour = 7

const recordDateLayout = "02-01-2006"

// Window is a time span records are summed over.
type Window struct {
	Start time.Time
	End   time.Time
}

// rollingToday is the 07:00-to-07:00 day that contains now: before 07:00 it
// started yesterday, from 07:00 on it runs into tomorrow.
func rollingToday(now time.Time) Window {
	start := now
	if now.Hour() < dayBoundaryHour {
		start = start.AddDate(0, 0, -1)
	}
	start = atBoundary(start)

	end := now
	if now.Hour() >= dayBoundaryHour {
		end = end.AddDate(0, 0, 1)
	}
	end = atBoundary(end)

	return Window{Start: start, End: end}
}

// yesterdayToToday is the already-closed rain day: yesterday 07:00 to today
// 07:00, with no hour-of-day branching.
func yesterdayToToday(now time.Time) Window {
	return Window{
		Start: atBoundary(now.AddDate(0, 0, -1)),
		End:   atBoundary(now),
	}
}

// lastClosedHour is the full hour immediately preceding now: at 14:23 it is
// 13:00-14:00 of the current date.
func lastClosedHour(now time.Time) Window {
	end := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	return Window{Start: end.Add(-time.Hour), End: end}
}

func atBoundary(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), dayBoundaryHour, 0, 0, 0, t.Location())
}

// dates returns the distinct record_date values the window covers.
func (w Window) dates() []string {
	start := w.Start.Format(recordDateLayout)
	end := w.End.Format(recordDateLayout)
	if start == end {
		return []string{start}
	}
	return []string{start, end}
}

// dailyLabel renders the dashboard label of a 07:00-anchored window, e.g.
// "07:00 - 29-30/8/2026". Day and month are unpadded. The yesterday window
// takes its year from the window end instead of the start.
func dailyLabel(w Window, yearFromEnd bool) string {
	year := w.Start.Year()
	if yearFromEnd {
		year = w.End.Year()
	}
	return fmt.Sprintf("07:00 - %d-%d/%d/%d", w.Start.Day(), w.End.Day(), int(w.Start.Month()), year)
}

// hourLabel renders the closed-hour label, e.g. "13:00-14:00 29/08/2026".
func hourLabel(w Window) string {
	return fmt.Sprintf("%s-%s %s",
		w.Start.Format("15:04"),
		w.End.Format("15:04"),
		w.Start.Format("02/01/2006"),
	)
}
