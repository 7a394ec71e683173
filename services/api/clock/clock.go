package clock

import "time"

// Clock supplies the current instant. Window math and time parsing take a
// Clock instead of calling time.Now so boundary conditions are testable.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns the current local time.
func (System) Now() time.Time { return time.Now() }
