// Package sched provides a single-threaded timer scheduler with a priority
// deadline queue. The editor's event loop pumps it explicitly, so tests can
// drive time with a fake clock instead of real timers.
package sched

import (
	"container/heap"
	"time"
)

// Clock supplies the scheduler's notion of now.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FakeClock is a manually advanced clock for tests.
type FakeClock struct {
	t time.Time
}

// NewFakeClock starts a fake clock at an arbitrary fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time { return c.t }

// Advance moves the fake clock forward.
func (c *FakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Timer is a handle to a scheduled callback.
type Timer struct {
	deadline time.Time
	fn       func()
	index    int // heap index, -1 when popped or stopped
	seq      uint64
}

// Stop cancels the timer if it has not fired. Safe to call repeatedly.
func (t *Timer) Stop() {
	if t.index >= 0 {
		t.fn = nil
	}
}

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Scheduler queues callbacks by deadline. It owns no goroutines; callers
// pump it from their event loop via RunDue.
type Scheduler struct {
	clock  Clock
	timers timerHeap
	seq    uint64
}

// New creates a scheduler on the given clock. A nil clock means SystemClock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock}
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// AfterFunc schedules fn to run once d from now. fn runs on the goroutine
// that calls RunDue.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) *Timer {
	s.seq++
	t := &Timer{deadline: s.clock.Now().Add(d), fn: fn, seq: s.seq}
	heap.Push(&s.timers, t)
	return t
}

// NextDeadline reports the earliest pending deadline. ok is false when the
// queue is empty.
func (s *Scheduler) NextDeadline() (deadline time.Time, ok bool) {
	for len(s.timers) > 0 && s.timers[0].fn == nil {
		heap.Pop(&s.timers)
	}
	if len(s.timers) == 0 {
		return time.Time{}, false
	}
	return s.timers[0].deadline, true
}

// RunDue fires every timer whose deadline is at or before now, in deadline
// order, and returns the number fired. Callbacks may schedule new timers;
// timers scheduled during RunDue for a past deadline also fire.
func (s *Scheduler) RunDue() int {
	now := s.clock.Now()
	fired := 0
	for len(s.timers) > 0 && !s.timers[0].deadline.After(now) {
		t := heap.Pop(&s.timers).(*Timer)
		if t.fn == nil {
			continue
		}
		fn := t.fn
		t.fn = nil
		fn()
		fired++
	}
	return fired
}

// Debouncer coalesces a burst of triggers into one trailing-edge callback.
// High-frequency pointer moves use it to throttle expensive recomputation
// to roughly one animation-frame interval.
type Debouncer struct {
	sched *Scheduler
	delay time.Duration
	fn    func()
	timer *Timer
}

// NewDebouncer creates a trailing-edge debouncer for fn.
func NewDebouncer(s *Scheduler, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{sched: s, delay: delay, fn: fn}
}

// Trigger (re)arms the debouncer. The callback fires delay after the most
// recent trigger.
func (d *Debouncer) Trigger() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.sched.AfterFunc(d.delay, func() {
		d.timer = nil
		d.fn()
	})
}

// Cancel drops any pending callback without firing it.
func (d *Debouncer) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a callback is armed.
func (d *Debouncer) Pending() bool { return d.timer != nil }

// Flush fires a pending callback immediately.
func (d *Debouncer) Flush() {
	if d.timer == nil {
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.fn()
}
