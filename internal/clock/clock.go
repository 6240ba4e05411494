// Package clock abstracts wall-clock time so the simulation core can be
// driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time in milliseconds since the Unix epoch.
// All simulation arithmetic (accrual, offer expiry, upgrade completion)
// runs on millisecond timestamps.
type Clock interface {
	NowMillis() int64
}

// System reads the real wall clock.
type System struct{}

// NowMillis returns the current wall-clock time in milliseconds.
func (System) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Manual is a hand-cranked clock for tests. The zero value starts at 0 ms.
type Manual struct {
	mu  sync.Mutex
	now int64
}

// NewManual creates a manual clock set to the given millisecond timestamp.
func NewManual(millis int64) *Manual {
	return &Manual{now: millis}
}

func (m *Manual) NowMillis() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to an absolute millisecond timestamp.
func (m *Manual) Set(millis int64) {
	m.mu.Lock()
	m.now = millis
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d.Milliseconds()
	m.mu.Unlock()
}
