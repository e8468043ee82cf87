// Package keyed provides a sharded, per-key-locked map used for the
// orchestrator's mutable registries (task ledger, conversation memory, HITL
// bridge, cancellation set). Concurrent operations on different keys proceed
// on different shards without blocking each other.
package keyed

import (
	"hash/fnv"
	"sync"
)

const shardCount = 16

// Map is a concurrency-safe string-keyed map with sharded locking.
type Map[V any] struct {
	shards [shardCount]shard[V]
}

type shard[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

// NewMap creates an empty Map.
func NewMap[V any]() *Map[V] {
	m := &Map[V]{}
	for i := range m.shards {
		m.shards[i].m = make(map[string]V)
	}
	return m
}

func (m *Map[V]) shard(key string) *shard[V] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &m.shards[h.Sum32()%shardCount]
}

// Get returns the value for key.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Set stores value under key.
func (m *Map[V]) Set(key string, value V) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

// Delete removes key.
func (m *Map[V]) Delete(key string) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// Update applies fn to the current value for key while holding the shard
// lock, serializing concurrent mutations of the same key. fn receives the
// current value (zero value if absent) and whether it was present, and
// returns the new value and whether to keep the entry.
func (m *Map[V]) Update(key string, fn func(current V, ok bool) (V, bool)) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	next, keep := fn(s.m[key], containsKey(s.m, key))
	if keep {
		s.m[key] = next
	} else {
		delete(s.m, key)
	}
}

func containsKey[V any](m map[string]V, key string) bool {
	_, ok := m[key]
	return ok
}

// Len returns the number of stored entries.
func (m *Map[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Range calls fn for every entry. Iteration order is unspecified; fn must not
// call back into the map.
func (m *Map[V]) Range(fn func(key string, value V)) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for k, v := range s.m {
			fn(k, v)
		}
		s.mu.RUnlock()
	}
}
