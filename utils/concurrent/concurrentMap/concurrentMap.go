// Package concurrentMap provides a mutex-guarded generic map, used by the worker
// pool to route results to per-call inboxes.
package concurrentMap

import "sync"

type ConcurrentMap[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{items: make(map[K]V)}
}

func (m *ConcurrentMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	return v, ok
}

func (m *ConcurrentMap[K, V]) Set(key K, v V) {
	m.mu.Lock()
	m.items[key] = v
	m.mu.Unlock()
}

func (m *ConcurrentMap[K, V]) Delete(key K) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// Drain empties the map and hands every removed entry to f, outside the lock.
func (m *ConcurrentMap[K, V]) Drain(f func(K, V)) {
	m.mu.Lock()
	items := m.items
	m.items = make(map[K]V)
	m.mu.Unlock()
	for k, v := range items {
		f(k, v)
	}
}

func (m *ConcurrentMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
