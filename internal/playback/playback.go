// Package playback drives an embedded player through priming and then reveals
// facts on a fixed cadence while the video plays.
//
// Nothing here locks. Every method and every timer callback runs as a task on
// the serial.Executor given to the constructors, and each deferred task checks
// that the owning Priming or Loop has not been stopped before touching state.
package playback

import "time"

// Controls is the subset of the player adapter that playback drives.
type Controls interface {
	Mute() error
	Unmute() error
	Play() error
	Pause() error
}

// Readiness is the per-instance priming flag. It only moves forward.
type Readiness int

const (
	Unprimed Readiness = iota
	Primed
)

// String returns "priming" until the pause has run, then "primed".
func (r Readiness) String() string {
	if r == Primed {
		return "primed"
	}
	return "priming"
}

// Timing holds the product-tuned delays. They are approximate and only their
// order matters.
type Timing struct {
	PrimingDelay    time.Duration
	FirstReveal     time.Duration
	RevealInterval  time.Duration
	OverlayDuration time.Duration
}

// DefaultTiming returns the delays the product ships with.
func DefaultTiming() Timing {
	return Timing{
		PrimingDelay:    500 * time.Millisecond,
		FirstReveal:     time.Second,
		RevealInterval:  10 * time.Second,
		OverlayDuration: 7 * time.Second,
	}
}
