// Package admission gates entry to the publish executor so only one browser
// automation session is active at a time. Excess requests fail fast with a
// Busy error instead of queuing: publish sessions run for minutes, and a
// queued caller would usually hit its own timeout anyway.
package admission

import (
	"sync"
	"time"

	"clippub/internal/services"
)

// Token is the capability representing the single system-wide admission slot.
// It is handed back to Release exactly once per successful TryAcquire.
type Token struct {
	acquiredAt time.Time
	gated      bool
}

// Controller owns the single-slot state. The zero value is not usable;
// construct with New.
type Controller struct {
	mu      sync.Mutex
	enabled bool
	held    bool
	since   time.Time
}

// New constructs a controller. When enabled is false the gate admits every
// caller, which exists for test rigs and single-user setups that accept the
// risk of concurrent browser sessions.
func New(enabled bool) *Controller {
	return &Controller{enabled: enabled}
}

// TryAcquire claims the admission slot without blocking. If the slot is
// already outstanding it fails immediately with a Busy error.
func (c *Controller) TryAcquire() (*Token, error) {
	if !c.enabled {
		return &Token{acquiredAt: time.Now()}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held {
		return nil, services.Wrap(services.ErrBusy, "admission", "acquire",
			"a publish session is already running, try again later", nil)
	}
	c.held = true
	c.since = time.Now()
	return &Token{acquiredAt: c.since, gated: true}, nil
}

// Release returns the slot. It always succeeds and tolerates a nil token so
// cleanup paths can call it unconditionally.
func (c *Controller) Release(token *Token) {
	if token == nil || !token.gated {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = false
	c.since = time.Time{}
}

// Occupied reports whether the slot is currently outstanding and since when.
func (c *Controller) Occupied() (bool, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held, c.since
}
