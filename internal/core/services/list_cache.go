package services

import "sync"

// ListStateCache keeps per-list state, such as the cursor of a result list,
// for the currently selected list only. Entries are created on first use.
type ListStateCache[K comparable, V any] struct {
	mu       sync.Mutex
	create   func(K) V
	entries  map[K]V
	selected K
}

// NewListStateCache creates a cache that builds missing entries with create.
func NewListStateCache[K comparable, V any](create func(K) V) *ListStateCache[K, V] {
	return &ListStateCache[K, V]{
		create:  create,
		entries: make(map[K]V),
	}
}

// Get returns the entry for key, creating it if needed.
func (c *ListStateCache[K, V]) Get(key K) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

// Select makes key the selected list, evicts every other entry and returns
// the entry for key.
func (c *ListStateCache[K, V]) Select(key K) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k != key {
			delete(c.entries, k)
		}
	}
	c.selected = key
	return c.getLocked(key)
}

// Selected returns the key passed to the last Select.
func (c *ListStateCache[K, V]) Selected() K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Len returns the number of cached entries.
func (c *ListStateCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ListStateCache[K, V]) getLocked(key K) V {
	v, ok := c.entries[key]
	if !ok {
		v = c.create(key)
		c.entries[key] = v
	}
	return v
}
