package quran

import "sync"

// Cache is a read-mostly verse record cache keyed by locator. Keys are
// written once and read many times; a race to populate the same key is
// harmless because both writers computed the same value, and the first
// write wins.
type Cache struct {
	mu      sync.RWMutex
	records map[string]*VerseRecord
}

// NewCache creates an empty verse cache
func NewCache() *Cache {
	return &Cache{
		records: make(map[string]*VerseRecord),
	}
}

// Get returns the cached record for the locator, if present
func (c *Cache) Get(loc Locator) (*VerseRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[loc.Key()]
	return record, ok
}

// Put stores the record under its locator unless the key is already
// populated. It returns the record now held in the cache.
func (c *Cache) Put(record *VerseRecord) *VerseRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := record.Locator().Key()
	if existing, ok := c.records[key]; ok {
		return existing
	}
	c.records[key] = record
	return record
}

// Len returns the number of cached records
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
