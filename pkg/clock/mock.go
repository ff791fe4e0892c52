package clock

import (
	"sort"
	"sync"
	"time"
)

// Mock is a manually driven Clock. Advance moves time forward and fires any
// AfterFunc callbacks that have come due, in deadline order, outside the
// mock's own lock so callbacks may call back into the mock.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

func NewMock(start time.Time) *Mock {
	return &Mock{now: start}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set jumps the mock to t without firing timers.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func (m *Mock) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &mockTimer{deadline: m.now.Add(d), fn: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing due timers.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now

	var due []*mockTimer
	remaining := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped() && !t.deadline.After(now) {
			due = append(due, t)
		} else if !t.stopped() {
			remaining = append(remaining, t)
		}
	}
	m.timers = remaining
	m.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, t := range due {
		t.fire()
	}
}

type mockTimer struct {
	mu       sync.Mutex
	deadline time.Time
	fn       func()
	done     bool
}

func (t *mockTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *mockTimer) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func (t *mockTimer) fire() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	fn := t.fn
	t.mu.Unlock()
	fn()
}

// ManualTicker is a test double fired explicitly with Trigger. Pulses while
// the ticker is stopped are dropped, matching IntervalTicker.
type ManualTicker struct {
	mu        sync.Mutex
	running   bool
	onElapsed func()
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{}
}

// Factory returns a TickerFactory that binds the subscriber's handler to
// this ticker, ignoring interval and autoRepeat.
func (t *ManualTicker) Factory() TickerFactory {
	return func(_ time.Duration, _ bool, onElapsed func()) Ticker {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.onElapsed = onElapsed
		return t
	}
}

func (t *ManualTicker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
}

func (t *ManualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

func (t *ManualTicker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Trigger delivers one elapsed pulse synchronously.
func (t *ManualTicker) Trigger() {
	t.mu.Lock()
	running, fn := t.running, t.onElapsed
	t.mu.Unlock()

	if running && fn != nil {
		fn()
	}
}

// Tick delivers n elapsed pulses.
func (t *ManualTicker) Tick(n int) {
	for i := 0; i < n; i++ {
		t.Trigger()
	}
}
