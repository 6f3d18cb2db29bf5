// Package watchdog implements the supervisory timeout that long flash
// operations must declare themselves to before they start.
package watchdog

import (
	"context"
	"sync"
	"time"
)

// Monitor tracks a supervisory deadline. The deadline normally sits Timeout
// after the last Kick; DeclareLongOperation pushes it out so a blocking erase
// or write is not mistaken for a hung system.
type Monitor struct {
	mu       sync.Mutex
	timeout  time.Duration
	deadline time.Time
	declared int
	now      func() time.Time
	sleep    func(time.Duration)
}

// New returns a monitor with the given base timeout, kicked now.
func New(timeout time.Duration) *Monitor {
	m := &Monitor{
		timeout: timeout,
		now:     time.Now,
		sleep:   time.Sleep,
	}
	m.Kick()
	return m
}

// Kick restarts the base timeout.
func (m *Monitor) Kick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extend(m.now().Add(m.timeout))
}

// DeclareLongOperation announces that the caller may block for up to d.
func (m *Monitor) DeclareLongOperation(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.declared++
	m.extend(m.now().Add(d + m.timeout))
}

// extend moves the deadline later, never earlier.
func (m *Monitor) extend(t time.Time) {
	if t.After(m.deadline) {
		m.deadline = t
	}
}

// Delay blocks for d. A delay is itself a long operation.
func (m *Monitor) Delay(d time.Duration) {
	m.DeclareLongOperation(d)
	m.sleep(d)
}

// Expired reports whether the deadline has passed.
func (m *Monitor) Expired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().After(m.deadline)
}

// Declared returns how many long operations have been declared.
func (m *Monitor) Declared() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.declared
}

// Watch polls the deadline every interval until ctx is done, calling
// onExpire once when it passes.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, onExpire func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.Expired() {
				onExpire()
				return
			}
		}
	}
}
