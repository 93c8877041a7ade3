package ports

import "time"

// Clock abstracts time so timer ordering and cancellation are testable
// without wall-clock waits. The engine arms every timer through a Clock and
// cancels the returned handle explicitly on re-arm or shutdown.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer returns a timer that fires once after d.
	NewTimer(d time.Duration) Timer
}

// Timer is a single outstanding timer handle.
type Timer interface {
	// C returns the channel the timer fires on. It delivers at most one
	// value.
	C() <-chan time.Time

	// Stop cancels the timer. It is safe to call on an expired timer.
	Stop()
}
