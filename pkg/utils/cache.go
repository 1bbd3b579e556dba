package utils

import (
	"container/list"
	"sync"
)

// lruEntry represents an entry in the LRU cache
type lruEntry[V any] struct {
	key   string
	value V
	node  *list.Element
}

// LRUCache implements a thread-safe LRU cache keyed by string. The renderer uses it to keep the
// font faces it builds for each size and weight.
type LRUCache[V any] struct {
	mu       sync.Mutex
	capacity int
	cache    map[string]*lruEntry[V]
	lru      *list.List
	onEvict  func(key string, value V)
}

/**************************************************************************************************
** NewLRUCache creates a new LRU cache.
**
** @param capacity - Maximum number of cached entries before evicting LRU
** @param onEvict - Optional callback invoked with every evicted entry (e.g. to close it)
** @return *LRUCache - Initialized LRU cache instance
**************************************************************************************************/
func NewLRUCache[V any](capacity int, onEvict func(key string, value V)) *LRUCache[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache[V]{
		capacity: capacity,
		cache:    make(map[string]*lruEntry[V]),
		lru:      list.New(),
		onEvict:  onEvict,
	}
}

/**************************************************************************************************
** Get retrieves a value from the cache and marks it as most recently used.
**
** @param key - Cache key
** @return V - Cached value if present
** @return bool - True if found in cache
**************************************************************************************************/
func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.cache[key]; ok {
		c.lru.MoveToFront(entry.node)
		return entry.value, true
	}
	var zero V
	return zero, false
}

/**************************************************************************************************
** Put inserts or updates a value in the cache, evicting the LRU entry if at capacity.
**
** @param key - Cache key
** @param value - Value to store
**************************************************************************************************/
func (c *LRUCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.cache[key]; ok {
		entry.value = value
		c.lru.MoveToFront(entry.node)
		return
	}

	if len(c.cache) >= c.capacity {
		c.evictLRU()
	}

	node := c.lru.PushFront(key)
	c.cache[key] = &lruEntry[V]{
		key:   key,
		value: value,
		node:  node,
	}
}

/**************************************************************************************************
** Len returns the number of cached entries.
**************************************************************************************************/
func (c *LRUCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

/**************************************************************************************************
** evictLRU removes the least recently used cache entry if one exists. Caller holds the lock.
**************************************************************************************************/
func (c *LRUCache[V]) evictLRU() {
	if c.lru.Len() == 0 {
		return
	}

	node := c.lru.Back()
	if node != nil {
		key := node.Value.(string)
		entry := c.cache[key]
		delete(c.cache, key)
		c.lru.Remove(node)
		if c.onEvict != nil && entry != nil {
			c.onEvict(key, entry.value)
		}
	}
}
