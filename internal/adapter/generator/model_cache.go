package generator

import (
	"context"
	"slices"
	"sync"
	"time"
)

// failureTTL is how long a failed fetch is remembered before Models tries
// the provider again.
const failureTTL = 30 * time.Second

// ModelLister fetches the model IDs a provider serves.
type ModelLister func(ctx context.Context) ([]string, error)

// ModelCache holds the provider's model list until expiresAt. It is
// refreshed on demand and never on a timer.
type ModelCache struct {
	mu        sync.Mutex
	entries   []string
	expiresAt time.Time
	ttl       time.Duration
	fetch     ModelLister
	now       func() time.Time

	lastErr  error
	errUntil time.Time
}

// NewModelCache creates a cache that calls fetch at most once per ttl.
func NewModelCache(fetch ModelLister, ttl time.Duration) *ModelCache {
	return &ModelCache{
		ttl:   ttl,
		fetch: fetch,
		now:   time.Now,
	}
}

// WithClock replaces the clock used for expiry.
func (c *ModelCache) WithClock(now func() time.Time) *ModelCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Fresh reports whether the cached list is still valid.
func (c *ModelCache) Fresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freshLocked()
}

func (c *ModelCache) freshLocked() bool {
	return c.entries != nil && c.now().Before(c.expiresAt)
}

func (c *ModelCache) failureTTL() time.Duration {
	if c.ttl > 0 && c.ttl < failureTTL {
		return c.ttl
	}
	return failureTTL
}

// Refresh fetches the model list unconditionally. On failure the previous
// entries are kept and the error is remembered for a short while.
func (c *ModelCache) Refresh(ctx context.Context) ([]string, error) {
	models, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		c.errUntil = c.now().Add(c.failureTTL())
		return nil, err
	}
	if models == nil {
		models = []string{}
	}
	c.entries = models
	c.expiresAt = c.now().Add(c.ttl)
	c.lastErr = nil
	c.errUntil = time.Time{}
	return slices.Clone(models), nil
}

// Models returns the cached list, refreshing it when stale. A recent fetch
// failure is returned again without contacting the provider.
func (c *ModelCache) Models(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	if c.freshLocked() {
		models := slices.Clone(c.entries)
		c.mu.Unlock()
		return models, nil
	}
	if c.lastErr != nil && c.now().Before(c.errUntil) {
		err := c.lastErr
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Invalidate drops the cached list.
func (c *ModelCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.expiresAt = time.Time{}
	c.lastErr = nil
	c.errUntil = time.Time{}
}

// Resolve returns configured when the provider serves it, otherwise the
// first model the provider lists. With discovery unavailable configured is
// returned as is.
func (c *ModelCache) Resolve(ctx context.Context, configured string) string {
	models, err := c.Models(ctx)
	if err != nil || len(models) == 0 {
		return configured
	}
	if configured != "" && slices.Contains(models, configured) {
		return configured
	}
	return models[0]
}
