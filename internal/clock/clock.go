// Package clock lets the poll runner, HTTP surface and tests share one
// notion of "now". Production code uses RealClock; tests drive a
// MockClock by hand.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source.
type Clock interface {
	Now() time.Time
	NowUnixMilli() int64
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// MockClock is a settable clock, safe for concurrent use.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock returns a MockClock frozen at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *MockClock) NowUnixMilli() int64 {
	return m.Now().UnixMilli()
}

// Set moves the clock to t.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock by d, which may be negative.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Since is time.Since against c.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
