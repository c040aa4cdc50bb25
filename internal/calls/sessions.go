package calls

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// SessionRetention is how long a registered voice agent id stays cached.
	SessionRetention = time.Hour
	// SweepInterval is how often expired sessions are removed.
	SweepInterval = time.Hour
)

type sessionEntry struct {
	value     string
	createdAt time.Time
}

// SessionCache maps a telephony session id to the voice agent call id registered for it.
// Expired entries stay readable until the next Sweep.
type SessionCache struct {
	Retention time.Duration
	Now       func() time.Time

	mu      sync.Mutex
	entries map[string]sessionEntry
	flights singleflight.Group
}

func NewSessionCache(retention time.Duration) *SessionCache {
	if retention <= 0 {
		retention = SessionRetention
	}
	return &SessionCache{
		Retention: retention,
		Now:       time.Now,
		entries:   make(map[string]sessionEntry),
	}
}

func (c *SessionCache) Get(sessionID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sessionID]
	return e.value, ok
}

func (c *SessionCache) Put(sessionID, value string, at time.Time) {
	c.mu.Lock()
	c.entries[sessionID] = sessionEntry{value: value, createdAt: at}
	c.mu.Unlock()
}

func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes entries older than the retention window and reports how many it removed.
func (c *SessionCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, e := range c.entries {
		if now.Sub(e.createdAt) > c.Retention {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

type registration struct {
	value  string
	cached bool
}

// GetOrRegister returns the cached value for sessionID or calls register once to obtain it.
// Concurrent callers for the same sessionID share one register call; other ids are not blocked.
// The shared call outlives any single caller's cancellation and is bounded by providerTimeout.
// Errors are not cached.
func (c *SessionCache) GetOrRegister(ctx context.Context, sessionID string, register func(context.Context) (string, error)) (string, bool, error) {
	if v, ok := c.Get(sessionID); ok {
		return v, true, nil
	}

	ch := c.flights.DoChan(sessionID, func() (any, error) {
		if v, ok := c.Get(sessionID); ok {
			return registration{value: v, cached: true}, nil
		}
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), providerTimeout)
		defer cancel()
		v, err := register(flightCtx)
		if err != nil {
			return nil, err
		}
		c.Put(sessionID, v, c.now())
		return registration{value: v}, nil
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		r := res.Val.(registration)
		return r.value, r.cached, nil
	}
}

func (c *SessionCache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
