package gistcache

import (
	"fmt"
	"sync"
	"time"

	"github.com/macrat/gistcache/lib-gistcache/logger"
)

// Entry is one cached value with its lifetime.
//
// Entries are made by Cache.Set and never modified afterwards.
type Entry[V any] struct {
	Value   V
	Created time.Time
	Expires time.Time
}

// IsExpired is check if entry has expired.
func (e Entry[V]) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// CacheStats is a snapshot of cache usage.
type CacheStats struct {
	Size       int     `json:"size"`
	MaxSize    int     `json:"max_size"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// Cache is the in-memory TTL cache with bounded size.
//
// All methods are safe for concurrent use. The background reclamation loop
// only runs between Start and Stop; Get heals expired entries by itself, so
// the loop is not needed for correctness.
type Cache[V any] struct {
	mutex           sync.Mutex
	entries         map[string]Entry[V]
	ttl             time.Duration
	maxSize         int
	cleanupInterval time.Duration
	metrics         *Metrics
	closer          chan struct{}
	done            chan struct{}
}

// NewCache is constructor of Cache.
func NewCache[V any](ttl time.Duration, maxSize int, cleanupInterval time.Duration, metrics *Metrics) (*Cache[V], error) {
	if ttl <= 0 {
		return nil, newError(TypeArgumentError, nil, "cache ttl must be positive but got %s", ttl)
	}
	if maxSize < 1 {
		return nil, newError(TypeArgumentError, nil, "cache max size must be 1 or more but got %d", maxSize)
	}
	if cleanupInterval <= 0 {
		return nil, newError(TypeArgumentError, nil, "cache cleanup interval must be positive but got %s", cleanupInterval)
	}

	return &Cache[V]{
		entries:         make(map[string]Entry[V]),
		ttl:             ttl,
		maxSize:         maxSize,
		cleanupInterval: cleanupInterval,
		metrics:         metrics,
	}, nil
}

func (c *Cache[V]) String() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return fmt.Sprintf("Cache[%d/%d entries]", len(c.entries), c.maxSize)
}

// Get is getter of a cached entry.
//
// An entry that already expired is deleted at this moment and reported as
// not found.
func (c *Cache[V]) Get(key string) (Entry[V], bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Entry[V]{}, false
	}

	if entry.IsExpired() {
		delete(c.entries, key)
		c.metrics.Expire(1)
		return Entry[V]{}, false
	}

	return entry, true
}

// Set is setter of a value.
//
// If inserting a new key would exceed the max size, the entry with the
// oldest created time is evicted first. Overwriting a key that is already
// present never triggers eviction.
func (c *Cache[V]) Set(key string, value V) Entry[V] {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	entry := Entry[V]{
		Value:   value,
		Created: now,
		Expires: now.Add(c.ttl),
	}
	c.entries[key] = entry

	return entry
}

// Delete is remover of a entry. Returns true if the key was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}

	delete(c.entries, key)
	return true
}

// Clear is remover of all entries.
func (c *Cache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]Entry[V])
}

// Stats is getter of cache usage snapshot.
func (c *Cache[V]) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return CacheStats{
		Size:       len(c.entries),
		MaxSize:    c.maxSize,
		TTLSeconds: c.ttl.Seconds(),
	}
}

// evictOldest must be called with the lock held.
// Ties on created time are broken by the smaller key.
func (c *Cache[V]) evictOldest() {
	found := false
	var oldest string

	for key, entry := range c.entries {
		if !found {
			oldest = key
			found = true
			continue
		}

		o := c.entries[oldest]
		if entry.Created.Before(o.Created) || (entry.Created.Equal(o.Created) && key < oldest) {
			oldest = key
		}
	}

	if found {
		delete(c.entries, oldest)
		c.metrics.Eviction()
	}
}

func (c *Cache[V]) cleanupTask() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	count := 0
	for key, entry := range c.entries {
		if entry.IsExpired() {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.metrics.Expire(count)
	}

	return count
}

func (c *Cache[V]) manage(closer, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-time.After(c.cleanupInterval):
			if count := c.cleanupTask(); count > 0 {
				logger.Debug("cleaned expired cache entries", logger.Fields{"count": count})
			}
		case <-closer:
			return
		}
	}
}

// Start is starter of the background reclamation loop.
//
// Calling Start when the loop is already running does nothing.
func (c *Cache[V]) Start() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closer != nil {
		return
	}

	c.closer = make(chan struct{})
	c.done = make(chan struct{})

	go c.manage(c.closer, c.done)
}

// Stop is stopper of the background reclamation loop.
//
// Stop waits until the loop has ended, so no background mutation happens
// after it returns. Calling Stop when never started does nothing.
func (c *Cache[V]) Stop() {
	c.mutex.Lock()
	closer, done := c.closer, c.done
	c.closer, c.done = nil, nil
	c.mutex.Unlock()

	if closer == nil {
		return
	}

	close(closer)
	<-done
}
