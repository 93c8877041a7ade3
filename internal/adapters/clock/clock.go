// Package clock provides the wall-clock implementation of ports.Clock.
package clock

import (
	"time"

	"github.com/LaxarJS/laxar-log-activity/internal/ports"
)

// WallClock implements ports.Clock using the system clock.
type WallClock struct{}

// New returns the wall clock.
func New() WallClock {
	return WallClock{}
}

// Now returns the current system time.
func (WallClock) Now() time.Time {
	return time.Now()
}

// NewTimer returns a one-shot timer backed by time.Timer.
func (WallClock) NewTimer(d time.Duration) ports.Timer {
	return &wallTimer{t: time.NewTimer(d)}
}

type wallTimer struct {
	t *time.Timer
}

func (w *wallTimer) C() <-chan time.Time {
	return w.t.C
}

func (w *wallTimer) Stop() {
	w.t.Stop()
}
