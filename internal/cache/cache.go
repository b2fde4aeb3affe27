// Package cache memoizes finalized encodings keyed by a content hash over
// the plan and constraint descriptors that produced them, so that
// re-encoding an identical (plan, constraints) pair is a cache hit rather
// than a full rewrite pass.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
)

// Cache caches finalized automata systems to avoid re-encoding identical
// (plan, constraints) pairs.
type Cache struct {
	store map[string]*cachedSystem
	mu    sync.RWMutex

	hits   int64
	misses int64

	maxSize int
	ttl     time.Duration
}

type cachedSystem struct {
	system    *ta.AutomataSystem
	timestamp time.Time
}

// New creates an encoding cache. maxSize <= 0 defaults to 1000 entries;
// ttl <= 0 defaults to 5 minutes.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		store:   make(map[string]*cachedSystem),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached finalized system for (pl, infos), if present and
// not expired.
func (c *Cache) Get(pl plan.Plan, infos []constraint.ICInfo) (*ta.AutomataSystem, bool) {
	if c == nil {
		return nil, false
	}
	key := computeKey(pl, infos)

	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.store[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	if time.Since(cached.timestamp) > c.ttl {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	return cached.system, true
}

// Set stores a finalized system for (pl, infos).
func (c *Cache) Set(pl plan.Plan, infos []constraint.ICInfo, system *ta.AutomataSystem) {
	if c == nil || system == nil {
		return
	}
	key := computeKey(pl, infos)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxSize {
		c.evictExpired()
		if len(c.store) >= c.maxSize {
			c.evictOldest()
		}
	}
	c.store[key] = &cachedSystem{system: system, timestamp: time.Now()}
}

// Clear removes every cached entry and resets statistics.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*cachedSystem)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Stats returns hit/miss counters and the current entry count.
func (c *Cache) Stats() (hits, misses int64, size int) {
	if c == nil {
		return 0, 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), len(c.store)
}

func computeKey(pl plan.Plan, infos []constraint.ICInfo) string {
	h := sha256.New()

	fmt.Fprintf(h, "PLAN:")
	for _, a := range pl.Actions {
		fmt.Fprintf(h, "%s|%d,%d,%d,%d|%d,%d,%d,%d;",
			a.Name.String(),
			a.Duration.Lower, a.Duration.Upper, a.Duration.LOp, a.Duration.ROp,
			a.AbsoluteTime.Lower, a.AbsoluteTime.Upper, a.AbsoluteTime.LOp, a.AbsoluteTime.ROp,
		)
	}

	fmt.Fprintf(h, "CONSTRAINTS:")
	for _, info := range infos {
		fmt.Fprintf(h, "%T:%#v;", info, info)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) evictExpired() {
	now := time.Now()
	for key, cached := range c.store {
		if now.Sub(cached.timestamp) > c.ttl {
			delete(c.store, key)
		}
	}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, cached := range c.store {
		if oldestKey == "" || cached.timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = cached.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.store, oldestKey)
	}
}
