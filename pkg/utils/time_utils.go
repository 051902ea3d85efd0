package utils

import "time"

// Clock returns the current time. Services take one so tests can move time.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }

// OrSystem returns c, or the system clock when c is nil.
func (c Clock) OrSystem() Clock {
	if c == nil {
		return SystemClock
	}
	return c
}
