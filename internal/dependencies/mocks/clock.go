package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Scheduled functions only run when Advance or Set moves the clock past
// their deadline, and they run synchronously on the caller's goroutine.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	timers      []*mockTimer
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// AfterFunc registers f to run once the mocked time reaches now+d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{clock: c, deadline: c.CurrentTime.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by the given duration, firing due timers in deadline order
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.CurrentTime.Add(d)
	c.mu.Unlock()
	c.Set(target)
}

// Set sets the clock to the given time, firing due timers in deadline order
func (c *MockClock) Set(t time.Time) {
	for {
		c.mu.Lock()
		next := c.nextDueLocked(t)
		if next == nil {
			c.CurrentTime = t
			c.mu.Unlock()
			return
		}
		if next.deadline.After(c.CurrentTime) {
			c.CurrentTime = next.deadline
		}
		next.fired = true
		c.removeLocked(next)
		c.mu.Unlock()

		// Timers may schedule further timers, so run without the lock held
		next.fn()
	}
}

// PendingTimers returns the number of scheduled timers that have not fired or been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *MockClock) nextDueLocked(until time.Time) *mockTimer {
	due := make([]*mockTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if !t.deadline.After(until) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	return due[0]
}

func (c *MockClock) removeLocked(t *mockTimer) {
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

type mockTimer struct {
	clock    *MockClock
	deadline time.Time
	fn       func()
	fired    bool
}

// Stop removes the timer if it has not fired yet
func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired {
		return false
	}
	for _, other := range t.clock.timers {
		if other == t {
			t.clock.removeLocked(t)
			t.fired = true
			return true
		}
	}
	return false
}
