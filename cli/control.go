package cli

import (
	"sync"
	"time"
)

// Control manages pause/resume/stop coordination between the keyboard
// goroutine and the playback loop.
type Control struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	stopReq  bool
	ackCh    chan struct{}
}

// NewControl creates a running control.
func NewControl() *Control {
	return &Control{ackCh: make(chan struct{}, 1)}
}

// RequestPause asks the playback loop to pause and blocks until it
// acknowledges or the control is stopped.
func (c *Control) RequestPause() {
	c.mu.Lock()
	if c.paused || c.pauseReq || c.stopReq {
		c.mu.Unlock()
		return
	}
	c.pauseReq = true
	c.mu.Unlock()

	<-c.ackCh
}

// RequestResume tells the playback loop to continue.
func (c *Control) RequestResume() {
	c.mu.Lock()
	c.pauseReq = false
	c.paused = false
	c.mu.Unlock()
}

// Toggle pauses a running loop or resumes a paused one. It reports
// whether playback is paused afterwards.
func (c *Control) Toggle() bool {
	c.mu.Lock()
	pausing := !c.pauseReq
	c.mu.Unlock()
	if pausing {
		c.RequestPause()
	} else {
		c.RequestResume()
	}
	return pausing
}

// CheckPause is called by the playback loop between steps. If a pause
// was requested it acknowledges and waits until resumed or stopped.
// Returns false if the loop should exit.
func (c *Control) CheckPause() bool {
	c.mu.Lock()
	if c.stopReq {
		c.mu.Unlock()
		return false
	}
	if !c.pauseReq {
		c.mu.Unlock()
		return true
	}
	c.paused = true
	c.mu.Unlock()

	select {
	case c.ackCh <- struct{}{}:
	default:
	}

	for {
		c.mu.Lock()
		if c.stopReq {
			c.mu.Unlock()
			return false
		}
		if !c.pauseReq {
			c.paused = false
			c.mu.Unlock()
			return true
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop signals the playback loop to exit. A pending RequestPause is
// released.
func (c *Control) Stop() {
	c.mu.Lock()
	c.stopReq = true
	pending := c.pauseReq && !c.paused
	c.pauseReq = false
	c.mu.Unlock()
	if pending {
		select {
		case c.ackCh <- struct{}{}:
		default:
		}
	}
}

// Stopped reports whether Stop was called.
func (c *Control) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopReq
}

// IsPaused reports whether the playback loop is currently paused.
func (c *Control) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}
