package application

import "time"

// Clock lets services read time through a seam that tests can pin.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Elapsed is the non-negative number of seconds between start and c.Now().
func Elapsed(c Clock, start time.Time) float64 {
	d := c.Now().Sub(start).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
