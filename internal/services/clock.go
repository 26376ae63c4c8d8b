package services

import "time"

// Clock supplies the current time. Every timestamp the services write goes
// through it, always in UTC.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
