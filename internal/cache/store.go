package cache

import (
	"sync"
	"time"
)

// Entry is a cached value with the time it was stored.
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
	Synthetic bool
}

// Store is a TTL map keyed by symbol or logical key. Safe for concurrent use.
type Store[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]Entry[T]
	now     func() time.Time
}

func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		ttl:     ttl,
		entries: make(map[string]Entry[T]),
		now:     time.Now,
	}
}

// Get returns the entry only if it is younger than the TTL.
func (s *Store[T]) Get(key string) (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.Timestamp) >= s.ttl {
		return Entry[T]{}, false
	}
	return e, true
}

func (s *Store[T]) Set(key string, data T, synthetic bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry[T]{Data: data, Timestamp: s.now(), Synthetic: synthetic}
}

// Purge drops expired entries and returns how many were removed.
func (s *Store[T]) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.now()
	for k, e := range s.entries {
		if now.Sub(e.Timestamp) >= s.ttl {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}
