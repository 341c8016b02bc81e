package lruCache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds caches built with a non-positive size.
const DefaultSize = 1024

// LRUCache is a fixed-capacity least recently used cache. The underlying
// lru.Cache is already safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

// NewLRUCache creates a new LRUCache instance with the specified maximum size.
func NewLRUCache[K comparable, V any](maxSize int) (*LRUCache[K, V], error) {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	cache, err := lru.New[K, V](maxSize)
	if err != nil {
		return nil, err
	}
	return &LRUCache[K, V]{cache: cache}, nil
}

// Add adds a key-value pair to the cache and reports whether an entry was evicted.
func (l *LRUCache[K, V]) Add(key K, value V) bool {
	return l.cache.Add(key, value)
}

// Get retrieves the value associated with the given key from the cache.
func (l *LRUCache[K, V]) Get(key K) (V, bool) {
	return l.cache.Get(key)
}

// ContainsOrAdd adds the key only if it is absent and reports whether it was already present.
func (l *LRUCache[K, V]) ContainsOrAdd(key K, value V) bool {
	ok, _ := l.cache.ContainsOrAdd(key, value)
	return ok
}

// Len returns the number of entries.
func (l *LRUCache[K, V]) Len() int {
	return l.cache.Len()
}

// Purge removes every entry.
func (l *LRUCache[K, V]) Purge() {
	l.cache.Purge()
}
