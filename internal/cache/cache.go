// Package cache provides the in-memory, ttl-bounded redirect cache that
// front-runs the persistent store on the redirect path.
//
// The cache is never the system of record: a miss is always resolvable from
// the store. Values are returned without copying; they are immutable strings.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultTTL            = time.Hour
	DefaultEvictionPeriod = 2 * time.Minute
)

type entry struct {
	redirectURL string
	expiresAt   int64 // unix nanoseconds
}

// Stats is a snapshot of cache counters. Hits and Misses are cumulative.
type Stats struct {
	Keys   int64
	Hits   uint64
	Misses uint64
}

// Option configures a RedirectCache.
type Option func(*RedirectCache)

// WithTTL sets the time-to-live applied on every Set.
func WithTTL(d time.Duration) Option {
	return func(c *RedirectCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithEvictionPeriod sets how often Run sweeps expired entries.
func WithEvictionPeriod(d time.Duration) Option {
	return func(c *RedirectCache) {
		if d > 0 {
			c.evictionPeriod = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *RedirectCache) {
		c.now = now
	}
}

// WithLogger sets the logger used by the eviction loop.
func WithLogger(logger *slog.Logger) Option {
	return func(c *RedirectCache) {
		c.logger = logger
	}
}

// RedirectCache maps short IDs to redirect URLs.
//
// Entries live in a sync.Map so operations on unrelated keys do not contend.
// Expired entries are removed one at a time with CompareAndDelete, which
// never drops an entry refreshed concurrently.
type RedirectCache struct {
	items          sync.Map // map[string]*entry
	keys           atomic.Int64
	hits           atomic.Uint64
	misses         atomic.Uint64
	ttl            time.Duration
	evictionPeriod time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// New returns an empty RedirectCache. Call Run to start background eviction.
func New(opts ...Option) *RedirectCache {
	c := &RedirectCache{
		ttl:            DefaultTTL,
		evictionPeriod: DefaultEvictionPeriod,
		now:            time.Now,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the redirect URL cached for shortID.
func (c *RedirectCache) Get(shortID string) (string, bool) {
	v, ok := c.items.Load(shortID)
	if !ok {
		c.misses.Add(1)
		return "", false
	}

	e := v.(*entry)
	if c.expired(e, c.now().UnixNano()) {
		c.remove(shortID, e)
		c.misses.Add(1)
		return "", false
	}

	c.hits.Add(1)
	return e.redirectURL, true
}

// Set caches redirectURL for shortID, resetting its ttl.
func (c *RedirectCache) Set(shortID, redirectURL string) {
	e := &entry{
		redirectURL: redirectURL,
		expiresAt:   c.now().Add(c.ttl).UnixNano(),
	}

	if _, loaded := c.items.Swap(shortID, e); !loaded {
		c.keys.Add(1)
	}
}

// DeleteExpired removes every expired entry and returns how many were removed.
func (c *RedirectCache) DeleteExpired() int {
	now := c.now().UnixNano()
	removed := 0

	c.items.Range(func(k, v any) bool {
		if e := v.(*entry); c.expired(e, now) && c.remove(k.(string), e) {
			removed++
		}
		return true
	})

	return removed
}

// Run sweeps expired entries every eviction period until ctx is done.
func (c *RedirectCache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.evictionPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.DeleteExpired(); n > 0 {
				c.logger.Debug("evicted expired cache entries", slog.Int("count", n))
			}
		}
	}
}

// Stats returns the current counters.
func (c *RedirectCache) Stats() Stats {
	return Stats{
		Keys:   c.keys.Load(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

func (c *RedirectCache) expired(e *entry, now int64) bool {
	return now >= e.expiresAt
}

func (c *RedirectCache) remove(shortID string, e *entry) bool {
	if c.items.CompareAndDelete(shortID, e) {
		c.keys.Add(-1)
		return true
	}

	return false
}
