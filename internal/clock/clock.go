// Package clock abstracts the timer operations used by the live client so
// reconnect backoff and highlight expiry can be tested without sleeping.
//
// Production code injects Real(); tests inject Fake() and move time with
// Advance.
package clock

import "time"

// Clock is the subset of the time package the live client depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for d, then calls f in its own goroutine (real) or
	// synchronously inside Advance (fake). The returned Timer cancels the
	// pending call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	// Stop prevents the call from running. It reports whether the call
	// was still pending.
	Stop() bool
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
