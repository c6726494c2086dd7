package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"sjsage522/bonoworker/internal/geo"
	"sjsage522/bonoworker/logger"
	apperrors "sjsage522/bonoworker/pkg/errors"
)

const backingKeyPrefix = "bono:coords:"

// Entry is a memoized resolution. A nil Coordinates is a cached absence.
type Entry struct {
	Coordinates *geo.Coordinates `json:"coordinates"`
	CachedAt    time.Time        `json:"cached_at"`
}

// Found reports whether the entry holds coordinates
func (e Entry) Found() bool {
	return e.Coordinates != nil
}

// LookupCache memoizes map-search URL resolutions for one run. It is safe for
// concurrent use. Entries never expire in memory; when a backing CacheService
// is set, entries are also written there with ttl so later runs can reuse them.
type LookupCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	backing CacheService
	ttl     time.Duration
	now     func() time.Time
	log     *logger.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLookupCache creates an in-memory lookup cache without a backing store
func NewLookupCache() *LookupCache {
	return NewTieredLookupCache(nil, 0)
}

// NewTieredLookupCache creates a lookup cache that falls back to backing on a memory miss
func NewTieredLookupCache(backing CacheService, ttl time.Duration) *LookupCache {
	return &LookupCache{
		entries: make(map[string]Entry),
		backing: backing,
		ttl:     ttl,
		now:     time.Now,
		log:     logger.ForCache(),
	}
}

// Get returns the entry for key. The boolean is false when the key was never stored.
func (c *LookupCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return entry, true
	}

	if entry, ok = c.getBacking(key); ok {
		c.mu.Lock()
		if existing, raced := c.entries[key]; raced {
			entry = existing
		} else {
			c.entries[key] = entry
		}
		c.mu.Unlock()
		c.hits.Add(1)
		return entry, true
	}

	c.misses.Add(1)
	return Entry{}, false
}

// Put stores coords (nil for absence) under key. The first value stored for a
// key wins, so concurrent resolutions of one URL converge on a single entry.
func (c *LookupCache) Put(key string, coords *geo.Coordinates) Entry {
	entry, stored := c.putMemory(key, coords)
	if stored {
		c.putBacking(key, entry)
	}
	return entry
}

// PutLocal is Put without the backing store. Results that are only valid
// for this run, such as transient upstream failures, go here.
func (c *LookupCache) PutLocal(key string, coords *geo.Coordinates) Entry {
	entry, _ := c.putMemory(key, coords)
	return entry
}

func (c *LookupCache) putMemory(key string, coords *geo.Coordinates) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing, false
	}
	entry := Entry{Coordinates: coords, CachedAt: c.now()}
	c.entries[key] = entry
	return entry, true
}

// Len returns the number of memoized URLs
func (c *LookupCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts since creation
func (c *LookupCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LookupCache) getBacking(key string) (Entry, bool) {
	if c.backing == nil {
		return Entry{}, false
	}

	data, err := c.backing.Get(backingKey(key))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn().Err(apperrors.NewCache("lookup", "backing get failed", err)).Msg("Backing cache unavailable")
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn().Err(apperrors.NewCache("lookup", "unreadable backing entry", err)).Msg("Discarding backing cache entry")
		return Entry{}, false
	}
	return entry, true
}

func (c *LookupCache) putBacking(key string, entry Entry) {
	if c.backing == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.log.Warn().Err(apperrors.NewCache("lookup", "encode entry", err)).Msg("Failed to encode cache entry")
		return
	}
	if err := c.backing.Set(backingKey(key), data, c.ttl); err != nil {
		c.log.Warn().Err(apperrors.NewCache("lookup", "backing set failed", err)).Msg("Backing cache set failed")
	}
}

// backingKey hashes the URL: memcache keys are limited to 250 bytes without spaces.
func backingKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return backingKeyPrefix + hex.EncodeToString(sum[:])
}
