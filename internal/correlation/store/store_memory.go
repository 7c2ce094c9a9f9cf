package store

import (
	"context"
	"fmt"
	"sync"

	"idsim/internal/correlation/models"
	"idsim/pkg/platform/sentinel"
)

// Error Contract:
// - Create returns ErrConflict when the token is already recorded
// - Find and Update return ErrNotFound when the token is absent
// - Delete returns the removed record, or nil when nothing was recorded

// InMemoryStore keeps pending operations in a map. Records are copied on
// the way in and out so callers never share state with the store.
type InMemoryStore struct {
	mu  sync.RWMutex
	ops map[string]models.PendingOperation
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{ops: make(map[string]models.PendingOperation)}
}

func (s *InMemoryStore) Create(_ context.Context, op *models.PendingOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ops[op.Token]; ok {
		return fmt.Errorf("pending operation %s: %w", op.Token, sentinel.ErrConflict)
	}
	s.ops[op.Token] = *op
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, token string) (*models.PendingOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.ops[token]
	if !ok {
		return nil, fmt.Errorf("pending operation %s: %w", token, sentinel.ErrNotFound)
	}
	return &op, nil
}

func (s *InMemoryStore) Update(_ context.Context, token string, fn func(*models.PendingOperation) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[token]
	if !ok {
		return fmt.Errorf("pending operation %s: %w", token, sentinel.ErrNotFound)
	}
	if err := fn(&op); err != nil {
		return err
	}
	s.ops[token] = op
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, token string) (*models.PendingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[token]
	if !ok {
		return nil, nil
	}
	delete(s.ops, token)
	return &op, nil
}

// Count returns the number of recorded operations.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ops), nil
}
