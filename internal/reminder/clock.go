package reminder

import "time"

// Clock abstracts time so timer arming is deterministic in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(delay time.Duration, fn func()) Timer
}

// Timer is a cancellable one-shot callback.
type Timer interface {
	Stop() bool
}

// RealClock uses the runtime timers.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, fn)
}
