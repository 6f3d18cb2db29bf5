package watchdog

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMonitor(timeout time.Duration) (*Monitor, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := &Monitor{timeout: timeout, now: clock.now, sleep: clock.advance}
	m.Kick()
	return m, clock
}

func TestMonitor_ExpiresWithoutKick(t *testing.T) {
	m, clock := newTestMonitor(2 * time.Second)

	clock.advance(time.Second)
	if m.Expired() {
		t.Fatal("Expired() after 1s, want false")
	}
	clock.advance(1500 * time.Millisecond)
	if !m.Expired() {
		t.Fatal("Expired() after 2.5s, want true")
	}
}

func TestMonitor_DeclareLongOperation(t *testing.T) {
	m, clock := newTestMonitor(2 * time.Second)

	m.DeclareLongOperation(time.Second)
	clock.advance(2500 * time.Millisecond)
	if m.Expired() {
		t.Error("declared 1s operation expired at 2.5s with 2s timeout")
	}
	clock.advance(time.Second)
	if !m.Expired() {
		t.Error("declared 1s operation did not expire at 3.5s")
	}
	if m.Declared() != 1 {
		t.Errorf("Declared() = %d, want 1", m.Declared())
	}
}

func TestMonitor_ShortDeclarationDoesNotShorten(t *testing.T) {
	m, clock := newTestMonitor(time.Second)

	m.DeclareLongOperation(11 * time.Second)
	m.DeclareLongOperation(time.Second)
	clock.advance(10 * time.Second)
	if m.Expired() {
		t.Error("later short declaration shortened the deadline")
	}
}

func TestMonitor_Delay(t *testing.T) {
	m, clock := newTestMonitor(time.Second)
	start := clock.t

	m.Delay(100 * time.Millisecond)

	if got := clock.t.Sub(start); got != 100*time.Millisecond {
		t.Errorf("Delay() slept %v, want 100ms", got)
	}
	if m.Expired() {
		t.Error("Expired() right after Delay()")
	}
}

func TestMonitor_Watch(t *testing.T) {
	m := New(10 * time.Millisecond)
	fired := make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go m.Watch(ctx, time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("Watch() never reported expiry")
	}
}
