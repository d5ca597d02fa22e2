package reminder

import (
	"sync"
	"time"
)

// fakeClock fires timers synchronously from Advance, in due order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	fn    func()
	done  bool
	// sticky timers ignore Stop, like a callback that already started.
	sticky bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) AfterFunc(delay time.Duration, fn func()) Timer {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	timer := &fakeTimer{clock: clock, at: clock.now.Add(delay), fn: fn}
	clock.timers = append(clock.timers, timer)
	return timer
}

func (timer *fakeTimer) Stop() bool {
	timer.clock.mu.Lock()
	defer timer.clock.mu.Unlock()
	if timer.done || timer.sticky {
		return false
	}
	timer.done = true
	return true
}

// Advance moves time forward by delay, running every timer that falls due.
func (clock *fakeClock) Advance(delay time.Duration) {
	clock.mu.Lock()
	target := clock.now.Add(delay)
	for {
		next := clock.nextDueLocked(target)
		if next == nil {
			break
		}
		next.done = true
		clock.now = next.at
		clock.mu.Unlock()
		next.fn()
		clock.mu.Lock()
	}
	clock.now = target
	clock.mu.Unlock()
}

// Pending counts timers that have neither fired nor been stopped.
func (clock *fakeClock) Pending() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	count := 0
	for _, timer := range clock.timers {
		if !timer.done {
			count++
		}
	}
	return count
}

// stickAll makes every live timer ignore Stop.
func (clock *fakeClock) stickAll() {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	for _, timer := range clock.timers {
		if !timer.done {
			timer.sticky = true
		}
	}
}

func (clock *fakeClock) nextDueLocked(target time.Time) *fakeTimer {
	var next *fakeTimer
	for _, timer := range clock.timers {
		if timer.done || timer.at.After(target) {
			continue
		}
		if next == nil || timer.at.Before(next.at) {
			next = timer
		}
	}
	return next
}
