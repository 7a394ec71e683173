package ingest

import (
	"regexp"
	"time"
)

// Devices report their measurement window as "HH:MM-HH:MM DD-MM-YYYY". Only
// the shape is checked; calendar validity is the device's problem.
var windowPattern = regexp.MustCompile(`^(\d{2}:\d{2})-(\d{2}:\d{2}) (\d{2}-\d{2}-\d{4})$`)

// Window is the decomposed measurement window of a reading.
type Window struct {
	Label string
	Start string
	End   string
	Date  string
}

// ParseWindow decomposes a raw device time string. Anything that does not
// match the expected shape (including an empty string) collapses to a
// zero-width window at now; this never fails.
func ParseWindow(raw string, now time.Time) Window {
	if m := windowPattern.FindStringSubmatch(raw); m != nil {
		return Window{Label: raw, Start: m[1], End: m[2], Date: m[3]}
	}

	hm := now.Format("15:04")
	date := now.Format("02-01-2006")
	return Window{
		Label: hm + "-" + hm + " " + date,
		Start: hm,
		End:   hm,
		Date:  date,
	}
}
