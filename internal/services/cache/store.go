package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type item[V any] struct {
	value     V
	createdAt time.Time
	hits      int
}

// Store is a bounded TTL map that evicts the oldest inserted entry first.
// Reads go through Peek so lookups never change the eviction order.
type Store[V any] struct {
	mu       sync.Mutex
	entries  *simplelru.LRU[string, *item[V]]
	ttl      time.Duration
	now      func() time.Time
	copyFunc func(V) V
}

// NewStore creates a store. copyFunc, when set, is applied on the way in and out.
func NewStore[V any](maxSize int, ttl time.Duration, copyFunc func(V) V) *Store[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	// NewLRU only fails for a non-positive size
	entries, _ := simplelru.NewLRU[string, *item[V]](maxSize, nil)
	return &Store[V]{
		entries:  entries,
		ttl:      ttl,
		now:      time.Now,
		copyFunc: copyFunc,
	}
}

// SetClock replaces the time source
func (s *Store[V]) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store[V]) copy(v V) V {
	if s.copyFunc == nil {
		return v
	}
	return s.copyFunc(v)
}

func (s *Store[V]) expired(it *item[V], now time.Time) bool {
	return s.ttl > 0 && now.Sub(it.createdAt) > s.ttl
}

// Get returns the value for key; expired entries are removed and reported missing
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	it, ok := s.entries.Peek(key)
	if !ok {
		return zero, false
	}
	if s.expired(it, s.now()) {
		s.entries.Remove(key)
		return zero, false
	}
	it.hits++
	return s.copy(it.value), true
}

// Set inserts or replaces key. Replacing keeps the entry's insertion slot but
// restarts its TTL.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if it, ok := s.entries.Peek(key); ok {
		it.value = s.copy(value)
		it.createdAt = now
		return
	}
	s.entries.Add(key, &item[V]{value: s.copy(value), createdAt: now})
}

// Delete removes key
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Remove(key)
}

// Purge drops every expired entry and returns how many were removed
func (s *Store[V]) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, key := range s.entries.Keys() {
		it, ok := s.entries.Peek(key)
		if ok && s.expired(it, now) {
			s.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Hits returns how often key has been read
func (s *Store[V]) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.entries.Peek(key); ok {
		return it.hits
	}
	return 0
}

// Len returns the number of stored entries, expired or not
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// Clear empties the store
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Purge()
}
