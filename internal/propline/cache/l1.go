// Package cache implements the Cache Manager (spec §4.6): an in-process
// LRU+TTL tier (L1) backed by an optional networked tier (L2) for
// cross-process coherence, with L1 remaining authoritative whenever L2 is
// unavailable.
package cache

import (
	"sync"
	"time"

	"github.com/sportsdata/propline/internal/propline/domain"
)

type l1Entry struct {
	prop     domain.CanonicalProp
	expires  time.Time
	accessed time.Time
	hits     int64
}

// L1Stats mirrors the teacher's cache tier stats shape, generalized to a
// single tier since this cache has one caller-supplied TTL per entry rather
// than fixed tiers.
type L1Stats struct {
	Hits, Misses, Evictions, CleanupRuns int64
	Entries                              int
}

// L1 is an in-process LRU+TTL cache keyed by line_hash, with a secondary
// sport index so Query can scan by sport without touching every key.
type L1 struct {
	mu         sync.RWMutex
	entries    map[string]*l1Entry
	bySport    map[domain.Sport]map[string]struct{}
	maxEntries int
	stats      L1Stats
	stopCh     chan struct{}
}

// NewL1 builds an L1 cache with the given capacity and starts its background
// cleanup goroutine. Call Close to stop it.
func NewL1(maxEntries int) *L1 {
	c := &L1{
		entries:    make(map[string]*l1Entry),
		bySport:    make(map[domain.Sport]map[string]struct{}),
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Close stops the background cleanup goroutine.
func (c *L1) Close() { close(c.stopCh) }

// Get returns the cached prop for hash, if present and unexpired.
func (c *L1) Get(hash string) (domain.CanonicalProp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[hash]
	if !ok {
		c.stats.Misses++
		return domain.CanonicalProp{}, false
	}
	if time.Now().After(e.expires) {
		c.stats.Misses++
		return domain.CanonicalProp{}, false
	}
	e.accessed = time.Now()
	e.hits++
	c.stats.Hits++
	return e.prop, true
}

// Put inserts or refreshes hash with the given TTL, evicting if at capacity.
func (c *L1) Put(prop domain.CanonicalProp, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[prop.LineHash]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	c.entries[prop.LineHash] = &l1Entry{
		prop:     prop,
		expires:  time.Now().Add(ttl),
		accessed: time.Now(),
	}
	c.indexLocked(prop.Sport, prop.LineHash)
}

// Invalidate removes a single hash.
func (c *L1) Invalidate(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(hash)
}

// InvalidateBySport removes every entry for a sport.
func (c *L1) InvalidateBySport(sport domain.Sport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for hash := range c.bySport[sport] {
		c.removeLocked(hash)
	}
}

// InvalidateByGame removes every entry whose game_id matches.
func (c *L1) InvalidateByGame(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for hash, e := range c.entries {
		if e.prop.GameID == gameID {
			c.removeLocked(hash)
		}
	}
}

// Scan calls visit for every unexpired entry in sport, until visit returns
// false. Used by Query to apply filter predicates without copying the whole
// keyspace.
func (c *L1) Scan(sport domain.Sport, visit func(domain.CanonicalProp) bool) {
	c.mu.RLock()
	hashes := make([]string, 0, len(c.bySport[sport]))
	for h := range c.bySport[sport] {
		hashes = append(hashes, h)
	}
	c.mu.RUnlock()

	now := time.Now()
	for _, h := range hashes {
		c.mu.RLock()
		e, ok := c.entries[h]
		var prop domain.CanonicalProp
		expired := false
		if ok {
			prop = e.prop
			expired = now.After(e.expires)
		}
		c.mu.RUnlock()
		if !ok || expired {
			continue
		}
		if !visit(prop) {
			return
		}
	}
}

// Stats returns a snapshot of cache counters.
func (c *L1) Stats() L1Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

func (c *L1) indexLocked(sport domain.Sport, hash string) {
	if c.bySport[sport] == nil {
		c.bySport[sport] = make(map[string]struct{})
	}
	c.bySport[sport][hash] = struct{}{}
}

func (c *L1) removeLocked(hash string) {
	e, ok := c.entries[hash]
	if !ok {
		return
	}
	delete(c.entries, hash)
	if set := c.bySport[e.prop.Sport]; set != nil {
		delete(set, hash)
	}
}

// evictLocked drops the entry nearest its TTL expiry (spec §4.6: "entries
// within 25% of TTL are evicted preferentially"), falling back to the least
// recently accessed entry when no entry is near expiry.
func (c *L1) evictLocked() {
	now := time.Now()
	var nearExpiryKey, lruKey string
	var nearestRemaining time.Duration = -1
	var oldestAccess time.Time

	for hash, e := range c.entries {
		remaining := e.expires.Sub(now)
		if nearestRemaining == -1 || remaining < nearestRemaining {
			nearestRemaining = remaining
			nearExpiryKey = hash
		}
		if oldestAccess.IsZero() || e.accessed.Before(oldestAccess) {
			oldestAccess = e.accessed
			lruKey = hash
		}
	}

	victim := lruKey
	if nearExpiryKey != "" {
		total := c.entries[nearExpiryKey].expires.Sub(c.entries[nearExpiryKey].accessed)
		if total > 0 && nearestRemaining <= total/4 {
			victim = nearExpiryKey
		}
	}
	if victim == "" {
		return
	}
	c.removeLocked(victim)
	c.stats.Evictions++
}

func (c *L1) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweepExpired()
		}
	}
}

func (c *L1) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for hash, e := range c.entries {
		if now.After(e.expires) {
			c.removeLocked(hash)
		}
	}
	c.stats.CleanupRuns++
}
