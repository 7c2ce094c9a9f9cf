package policy

import (
	"context"
	"fmt"
	"sync"

	"idsim/internal/rp/models"
	"idsim/pkg/platform/sentinel"
)

// Error Contract:
// - Find returns ErrNotFound when no policy is held for the request
// - Save overwrites; the backend never reuses a request id
// - Dispose of an absent policy is not an error

// InMemoryStore keeps request policies in a map.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[string]models.RequestPolicy
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{policies: make(map[string]models.RequestPolicy)}
}

func (s *InMemoryStore) Save(_ context.Context, p *models.RequestPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.RequestID] = *p
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, requestID string) (*models.RequestPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[requestID]
	if !ok {
		return nil, fmt.Errorf("request policy %s: %w", requestID, sentinel.ErrNotFound)
	}
	return &p, nil
}

// Dispose reports whether a policy was removed.
func (s *InMemoryStore) Dispose(_ context.Context, requestID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[requestID]; !ok {
		return false, nil
	}
	delete(s.policies, requestID)
	return true, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.policies), nil
}
