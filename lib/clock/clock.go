// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code
// injects Real(); tests inject a Fake with deterministic delivery so
// the publisher's adaptive pause loop runs without wall-clock waits.
package clock

import "time"

// Clock provides the two time operations the publisher needs: reading
// the current time and waiting for a duration. Code that pauses should
// select on After together with a context's Done channel so waits stay
// interruptible.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. Equivalent to time.After.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
