package cache

import (
	"sync"
	"time"
)

// TextCache keeps normalized document text keyed by document ID so repeated
// questions against the same corpus skip extraction. Entries expire after
// ttl and the least recently used entry is evicted when full.
type TextCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	order      []string
	maxSize    int
	ttl        time.Duration
	generation uint64
	now        func() time.Time
}

type cacheEntry struct {
	text       string
	timestamp  time.Time
	generation uint64
}

func NewTextCache(maxSize int, ttl time.Duration) *TextCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TextCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *TextCache) WithClock(now func() time.Time) *TextCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

func (c *TextCache) Get(docID string) (string, bool) {
	c.mu.RLock()
	entry, exists := c.entries[docID]
	currentGen := c.generation
	now := c.now()
	c.mu.RUnlock()

	if !exists {
		return "", false
	}

	if now.Sub(entry.timestamp) > c.ttl || entry.generation != currentGen {
		c.mu.Lock()
		delete(c.entries, docID)
		c.removeFromOrder(docID)
		c.mu.Unlock()
		return "", false
	}

	c.mu.Lock()
	c.moveToEnd(docID)
	c.mu.Unlock()

	return entry.text, true
}

func (c *TextCache) Put(docID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{
		text:       text,
		timestamp:  c.now(),
		generation: c.generation,
	}

	if _, exists := c.entries[docID]; exists {
		c.entries[docID] = entry
		c.moveToEnd(docID)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[docID] = entry
	c.order = append(c.order, docID)
}

// Invalidate drops every entry. Call it after the corpus changes.
func (c *TextCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.generation++
}

func (c *TextCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TextCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *TextCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *TextCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
