// Package clock abstracts the time source used by playback timers so tests can
// drive them deterministically.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the timer
	// already fired or was already stopped.
	Stop() bool
}

// Clock schedules callbacks after a delay.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real returns a Clock backed by the wall clock.
func Real() Clock {
	return FromClockwork(clockwork.NewRealClock())
}

// FromClockwork adapts a clockwork.Clock.
func FromClockwork(c clockwork.Clock) Clock {
	return clockworkClock{c: c}
}

type clockworkClock struct {
	c clockwork.Clock
}

func (c clockworkClock) Now() time.Time { return c.c.Now() }

func (c clockworkClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.c.AfterFunc(d, f)
}

// Stop stops t if it is non-nil.
func Stop(t Timer) {
	if t != nil {
		t.Stop()
	}
}
