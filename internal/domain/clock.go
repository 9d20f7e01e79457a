package domain

import "time"

// Clock supplies the current instant
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Used by tests and batch tools.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// IDGenerator returns a fresh globally unique identifier on every call
type IDGenerator interface {
	NewID() string
}
