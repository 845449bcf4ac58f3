package cliplib

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps clip lists in memory, keyed by owner.
type MemoryStore struct {
	mu    sync.Mutex
	clips map[string][]Clip
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clips: make(map[string][]Clip)}
}

func (s *MemoryStore) Add(ctx context.Context, owner string, clip Clip) error {
	if err := ValidateURL(clip.URL); err != nil {
		return err
	}
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	if clip.AddedAt.IsZero() {
		clip.AddedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips[owner] = append(s.clips[owner], clip)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, owner string) ([]Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Clip, len(s.clips[owner]))
	copy(out, s.clips[owner])
	return out, nil
}

func (s *MemoryStore) Remove(ctx context.Context, owner, clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.clips[owner]
	for i, c := range list {
		if c.ID == clipID {
			s.clips[owner] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Clear(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clips, owner)
	return nil
}

var _ Store = (*MemoryStore)(nil)
