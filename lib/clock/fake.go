// Copyright 2026 The Mavenport Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake is a Clock for tests. Every After call records the requested
// duration, advances the fake's notion of time by that duration, and
// delivers immediately. Tests inspect Waits() to assert the exact
// pause sequence a loop requested.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

// NewFake returns a Fake starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After records the requested duration, advances the fake time by it,
// and returns a channel that already holds the new time. Callers
// selecting on the channel proceed without blocking.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	f.waits = append(f.waits, d)
	f.now = f.now.Add(d)
	now := f.now
	f.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Waits returns a copy of the durations passed to After, in call order.
func (f *Fake) Waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	waits := make([]time.Duration, len(f.waits))
	copy(waits, f.waits)
	return waits
}
