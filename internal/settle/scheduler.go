package settle

import (
	"sync"
	"time"
)

// Scheduler runs at most one pending task per key. Scheduling a key again replaces
// its pending task.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*task
	stopped bool
}

type task struct {
	timer *time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: make(map[string]*task),
	}
}

// Schedule runs fn once delay has elapsed, unless the key is rescheduled or cancelled first.
// It reports whether a previous task for the key was superseded.
func (that *Scheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.stopped {
		return false
	}

	superseded := that.cancelLocked(key)

	current := &task{}
	current.timer = time.AfterFunc(delay, func() {
		that.mu.Lock()
		if that.pending[key] != current {
			that.mu.Unlock()
			return
		}
		delete(that.pending, key)
		that.mu.Unlock()

		fn()
	})
	that.pending[key] = current

	return superseded
}

// Cancel drops the pending task for key and reports whether there was one.
func (that *Scheduler) Cancel(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.cancelLocked(key)
}

func (that *Scheduler) Pending(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.pending[key]
	return ok
}

// Stop cancels every pending task. Later calls to Schedule do nothing.
func (that *Scheduler) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for key := range that.pending {
		that.cancelLocked(key)
	}
	that.stopped = true
}

func (that *Scheduler) cancelLocked(key string) bool {
	previous, ok := that.pending[key]
	if !ok {
		return false
	}

	previous.timer.Stop()
	delete(that.pending, key)

	return true
}
