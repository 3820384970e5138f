package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for single-node deployments and tests.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[string]memoryItem
	writes     int
	defaultTTL time.Duration
	now        func() time.Time
}

// sweepEvery is how many writes pass between purges of expired entries.
const sweepEvery = 256

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore builds an empty MemoryStore. A non-positive defaultTTL keeps entries until deleted.
func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), defaultTTL: defaultTTL, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt) {
		delete(s.items, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), item.value...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = item
	s.writes++
	if s.writes%sweepEvery == 0 {
		s.sweep()
	}
	s.mu.Unlock()
	return nil
}

// sweep drops expired entries that were never read back. Callers hold mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	for key, item := range s.items {
		if !item.expiresAt.IsZero() && !now.Before(item.expiresAt) {
			delete(s.items, key)
		}
	}
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}
