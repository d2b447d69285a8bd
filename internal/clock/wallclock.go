package clock

import "time"

// WallClock lets delay timers and drivers read the current time; tests inject a fake.
type WallClock interface {
	Now() time.Time
}

// SystemClock is the default WallClock backed by time.Now.
var SystemClock WallClock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
