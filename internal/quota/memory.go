package quota

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store guarded by a mutex. Counters reset on
// restart, which is acceptable for the free tier it protects.
type MemoryStore struct {
	limit int

	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryStore creates an in-memory store allowing limit successful
// generations per fingerprint.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: limit, counts: make(map[string]int)}
}

func (s *MemoryStore) Allow(ctx context.Context, key string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := s.counts[key]
	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return used < s.limit, remaining, nil
}

func (s *MemoryStore) RecordSuccess(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return nil
}

var _ Store = (*MemoryStore)(nil)
