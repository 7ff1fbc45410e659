package share

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory share store for development and testing.
type MemoryStore struct {
	mu     sync.RWMutex
	shares map[string]*Share
}

// NewMemoryStore creates an in-memory share store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shares: make(map[string]*Share)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Share, error) {
	s.mu.RLock()
	sh, ok := s.shares[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if sh.IsExpired() {
		s.mu.Lock()
		delete(s.shares, id)
		s.mu.Unlock()
		return nil, nil
	}
	out := *sh
	return &out, nil
}

func (s *MemoryStore) Set(ctx context.Context, sh *Share) error {
	cp := *sh
	s.mu.Lock()
	s.shares[sh.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.shares, id)
	s.mu.Unlock()
	return nil
}

// Cleanup removes expired shares.
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sh := range s.shares {
		if sh.IsExpired() {
			delete(s.shares, id)
		}
	}
	return nil
}

// Close does nothing for memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
