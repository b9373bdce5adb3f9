package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	attempts  map[string]Attempt
	finalized map[int]time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts:  make(map[string]Attempt),
		finalized: make(map[int]time.Time),
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[sessionID]
	if !ok {
		return nil, ErrNoAttempt
	}
	return &a, nil
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[sessionID] = a
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, sessionID)
	return nil
}

func (s *MemoryStore) ClearJob(_ context.Context, sessionID string, jobID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[sessionID]
	if !ok || a.JobID != jobID {
		return false, nil
	}
	delete(s.attempts, sessionID)
	return true, nil
}

func (s *MemoryStore) ClaimFinalize(_ context.Context, jobID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.finalized[jobID]; done {
		return false, nil
	}
	s.finalized[jobID] = time.Now()
	return true, nil
}

func (s *MemoryStore) Close() error { return nil }
