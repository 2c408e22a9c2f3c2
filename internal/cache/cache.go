// Package cache is the in-process search result cache: bounded by entry
// count, evicting the least recently fetched or inserted entry, with a fixed
// time-to-live per entry.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Defaults used when the configuration leaves a value unset.
const (
	DefaultCapacity      = 100
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Observer receives cache events. Implementations must be cheap.
type Observer interface {
	Hit()
	Miss()
	Evicted()
	Expired(n int)
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Cache maps keys to values for at most ttl after insertion. Get promotes an
// entry to most recent without resetting its insertion time, so eviction
// order is "least recently fetched or inserted" while expiry stays anchored
// at insertion.
type Cache[V any] struct {
	// mu makes the check-then-act sequences in Get, Set and Cleanup atomic;
	// the lru list is not touched outside it.
	mu       sync.Mutex
	lru      *lru.Cache[string, entry[V]]
	ttl      time.Duration
	now      func() time.Time
	observer Observer
	logger   *zap.Logger
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now      func() time.Time
	observer Observer
	logger   *zap.Logger
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithObserver reports hits, misses, evictions and expiries.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger used by the sweeper.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a cache holding at most capacity entries for ttl each.
func New[V any](capacity int, ttl time.Duration, opts ...Option) (*Cache[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}

	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	l, err := lru.New[string, entry[V]](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	return &Cache[V]{
		lru:      l,
		ttl:      ttl,
		now:      o.now,
		observer: o.observer,
		logger:   o.logger,
	}, nil
}

// Get returns the value for key. An entry older than ttl is removed and
// reported as absent even if the sweeper has not reached it yet.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Peek(key)
	if !ok {
		c.miss()
		return zero, false
	}
	if c.expired(e, c.now()) {
		c.lru.Remove(key)
		c.miss()
		if c.observer != nil {
			c.observer.Expired(1)
		}
		return zero, false
	}

	// promote to most recent
	c.lru.Get(key)
	if c.observer != nil {
		c.observer.Hit()
	}
	return e.value, true
}

// Set stores value under key with a fresh insertion time. An existing entry
// is replaced and moved to most recent; otherwise, at capacity, the least
// recently fetched or inserted entry is evicted.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(key)
	if evicted := c.lru.Add(key, entry[V]{value: value, insertedAt: c.now()}); evicted && c.observer != nil {
		c.observer.Evicted()
	}
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Cleanup removes every expired entry. Live entries keep their position and
// insertion time.
func (c *Cache[V]) Cleanup() {
	c.cleanup()
}

func (c *Cache[V]) cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.lru.Keys() {
		e, ok := c.lru.Peek(key)
		if ok && c.expired(e, now) {
			c.lru.Remove(key)
			removed++
		}
	}
	if removed > 0 && c.observer != nil {
		c.observer.Expired(removed)
	}
	return removed
}

// Len returns the number of resident entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Keys returns resident keys from least to most recently used.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Keys()
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// StartSweeper runs Cleanup every interval until ctx is cancelled. It returns
// immediately; the sweep runs on its own goroutine and never blocks callers
// for longer than one Cleanup pass.
func (c *Cache[V]) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.cleanup(); n > 0 {
					c.logger.Debug("Result cache sweep",
						zap.Int("expired", n),
						zap.Int("resident", c.Len()),
					)
				}
			}
		}
	}()
}

// expired reports whether e outlived ttl: an entry is live through exactly
// insertedAt+ttl and gone one instant later.
func (c *Cache[V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.insertedAt) > c.ttl
}

func (c *Cache[V]) miss() {
	if c.observer != nil {
		c.observer.Miss()
	}
}
