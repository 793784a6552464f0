package clock

import "time"

// Clock abstracts wall time so services can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystem returns a Clock backed by the wall clock in UTC.
func NewSystem() Clock {
	return systemClock{}
}
