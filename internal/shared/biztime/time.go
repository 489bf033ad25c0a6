// Package biztime centralizes time handling for the licensing core.
// All storage and transport use UTC; expiration math must never depend on
// the server's local timezone.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time (any timezone) to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Clock supplies the current time. Production code uses RealClock; tests
// substitute a fixed clock so expiry boundaries are deterministic.
type Clock interface {
	Now() time.Time
}

// RealClock is the wall-clock implementation of Clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return NowUTC()
}
