package domain

import "time"

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is the production clock. All persisted timestamps are UTC.
func SystemClock() time.Time {
	return time.Now().UTC() //nolint:wallclock
}
