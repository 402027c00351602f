package events

import (
	"context"
	"sync"
)

// CaptureHook records every event it receives. It is safe for concurrent
// use and is primarily intended for tests.
type CaptureHook struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

// Notify appends the event and returns the configured error, if any.
func (c *CaptureHook) Notify(_ context.Context, event Event) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, event)
	return c.Err
}

// Captured returns a copy of the recorded events.
func (c *CaptureHook) Captured() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.Events))
	copy(out, c.Events)
	return out
}

// Reset clears the recorded events.
func (c *CaptureHook) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = nil
}
