package chat

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long after the last keystroke the composing
// indicator stays up.
const DefaultQuietPeriod = 2 * time.Second

// composing is the debounced "is typing" flag. Each keystroke re-arms the
// timer; the flag drops exactly once per idle period. The timer is owned by
// the view and must be stopped on teardown so it cannot fire after close.
type composing struct {
	mu     sync.Mutex
	quiet  time.Duration
	timer  *time.Timer
	active bool
}

func newComposing(quiet time.Duration) *composing {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &composing{quiet: quiet}
}

// Touch marks the user as composing and restarts the quiet-period timer.
func (c *composing) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiet, c.expire)
}

func (c *composing) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
}

// Clear drops the flag immediately and cancels any pending expiry.
func (c *composing) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *composing) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
