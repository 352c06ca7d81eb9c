package control

import (
	"sync"
	"time"
)

// DefaultThrottle suppresses repeats of the same command.
const DefaultThrottle = 500 * time.Millisecond

// Throttle drops a command identical to the previous one if it arrives
// within the window. A different command always passes.
type Throttle struct {
	mu     sync.Mutex
	window time.Duration
	last   string
	lastAt time.Time
	now    func() time.Time
}

// NewThrottle creates a throttle; a non-positive window disables it.
func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{window: window, now: time.Now}
}

// Allow reports whether command may be sent. It does not record anything;
// call Record once the command was actually delivered.
func (t *Throttle) Allow(command string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.window <= 0 || command != t.last {
		return true
	}
	return t.now().Sub(t.lastAt) >= t.window
}

// Record marks command as sent now.
func (t *Throttle) Record(command string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = command
	t.lastAt = t.now()
}
