package store

import (
	"sync"
	"time"

	"github.com/i474232898/cuba-rates/internal/exchange"
)

// entry holds a cached quote and when it was fetched upstream.
type entry struct {
	quote     exchange.Quote
	fetchedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory quote cache.
type MemoryStore struct {
	mu sync.RWMutex

	// key: date range key
	data map[string]entry

	// retention configuration
	maxEntries int           // max number of cached ranges (0 = unlimited)
	maxAge     time.Duration // entries older than this are dropped on save (0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save stores a quote under key and enforces retention.
func (s *MemoryStore) Save(key string, q exchange.Quote, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{quote: q, fetchedAt: fetchedAt}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		for k, e := range s.data {
			if e.fetchedAt.Before(cutoff) {
				delete(s.data, k)
			}
		}
	}

	// Enforce retention by count, evicting the oldest entries first.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		var (
			oldestKey string
			oldestAt  time.Time
		)
		for k, e := range s.data {
			if oldestKey == "" || e.fetchedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.fetchedAt
			}
		}
		delete(s.data, oldestKey)
	}
}

// Get returns the quote stored under key and its fetch time.
func (s *MemoryStore) Get(key string) (exchange.Quote, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return exchange.Quote{}, time.Time{}, false
	}
	return e.quote, e.fetchedAt, true
}

// Len reports how many ranges are cached.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
