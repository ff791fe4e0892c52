// Package clock abstracts time sources so billing logic can be tested
// deterministically. Production code uses SystemClock and interval tickers;
// tests inject Mock and ManualTicker.
package clock

import "time"

// Clock provides the current time and delayed callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc waits for the duration to elapse and then calls f in its
	// own goroutine. Returns a Timer that can be used to cancel the call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer represents a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the Timer from firing. Returns true if the call was
	// stopped, false if the timer has already expired or been stopped.
	Stop() bool
}

// SystemClock implements Clock using the standard time package.
type SystemClock struct{}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	return time.Now()
}

func (c *SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return &systemTimer{timer: time.AfterFunc(d, f)}
}

type systemTimer struct {
	timer *time.Timer
}

func (t *systemTimer) Stop() bool {
	return t.timer.Stop()
}
