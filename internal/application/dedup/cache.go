package dedup

import (
	"sync"
	"time"
)

type entry struct {
	notificationID string
	seenAt         time.Time
}

// Cache is the process-local dedup cache: content hash -> the id of the row
// last persisted for that hash. Entries expire after a fixed TTL, independent
// of the store-side dedup window. Two near-simultaneous creation calls can
// still race across the store round-trip; the worst outcome is a harmless
// duplicate, so no distributed lock is used.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

// NewCache creates a Cache whose entries expire after ttl. A background
// sweeper removes stale entries so the map does not grow unbounded between
// lookups.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
	go c.cleanup()
	return c
}

// Lookup returns the notification id seeded for hash, if the entry is still
// fresh. Stale entries are evicted on the way out.
func (c *Cache) Lookup(hash string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hash]
	if !ok {
		return "", false
	}
	if time.Since(e.seenAt) > c.ttl {
		delete(c.entries, hash)
		return "", false
	}
	return e.notificationID, true
}

// Seed records hash as last seen now, pointing at notificationID.
func (c *Cache) Seed(hash, notificationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = entry{notificationID: notificationID, seenAt: time.Now()}
}

// Len returns the number of tracked hashes, stale entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cleanup removes expired entries once per TTL interval.
func (c *Cache) cleanup() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	for {
		time.Sleep(interval)
		c.mu.Lock()
		for hash, e := range c.entries {
			if time.Since(e.seenAt) > c.ttl {
				delete(c.entries, hash)
			}
		}
		c.mu.Unlock()
	}
}
