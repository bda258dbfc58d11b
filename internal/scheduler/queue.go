package scheduler

import (
	"sync"
	"time"
)

// Queue registers one-shot delayed callbacks keyed by an idempotency key.
// Registering a key that is already pending replaces the earlier callback.
type Queue interface {
	ScheduleAt(at time.Time, key string, fn func())
	Cancel(key string) bool
}

// TimerQueue is an in-memory Queue backed by time.AfterFunc.
// Pending timers do not survive a restart; see Scheduler.Resync.
type TimerQueue struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	now    func() time.Time
}

// NewTimerQueue creates an empty queue.
func NewTimerQueue() *TimerQueue {
	return &TimerQueue{
		timers: make(map[string]*time.Timer),
		now:    time.Now,
	}
}

// ScheduleAt runs fn at (or shortly after) at. A past at fires immediately.
func (q *TimerQueue) ScheduleAt(at time.Time, key string, fn func()) {
	delay := at.Sub(q.now())
	if delay < 0 {
		delay = 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if old, ok := q.timers[key]; ok {
		old.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		q.mu.Lock()
		// Only the current timer for key may clear it.
		if q.timers[key] == t {
			delete(q.timers, key)
		}
		q.mu.Unlock()
		fn()
	})
	q.timers[key] = t
}

// Cancel stops the pending timer for key. It reports whether one was pending.
func (q *TimerQueue) Cancel(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.timers[key]
	if !ok {
		return false
	}
	t.Stop()
	delete(q.timers, key)
	return true
}

// Len returns the number of pending timers.
func (q *TimerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// Stop cancels every pending timer.
func (q *TimerQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for key, t := range q.timers {
		t.Stop()
		delete(q.timers, key)
	}
}
