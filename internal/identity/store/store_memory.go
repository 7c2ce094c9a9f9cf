package store

import (
	"context"
	"fmt"
	"sync"

	"idsim/internal/identity/models"
	"idsim/pkg/platform/sentinel"
)

// InMemoryStore keeps subjects keyed by namespace:identifier with a group
// code index, and accessors keyed by id.
type InMemoryStore struct {
	mu        sync.RWMutex
	subjects  map[string]*models.Subject
	byGroup   map[string]string
	accessors map[string]models.Accessor
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		subjects:  make(map[string]*models.Subject),
		byGroup:   make(map[string]string),
		accessors: make(map[string]models.Accessor),
	}
}

func (s *InMemoryStore) FindSubject(_ context.Context, namespace, identifier string) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[models.SubjectKey(namespace, identifier)]
	if !ok {
		return nil, fmt.Errorf("subject %s/%s: %w", namespace, identifier, sentinel.ErrNotFound)
	}
	return subject.Clone(), nil
}

func (s *InMemoryStore) FindSubjectByGroupCode(_ context.Context, groupCode string) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.byGroup[groupCode]
	if !ok || groupCode == "" {
		return nil, fmt.Errorf("subject in group %s: %w", groupCode, sentinel.ErrNotFound)
	}
	subject, ok := s.subjects[key]
	if !ok {
		return nil, fmt.Errorf("subject in group %s: %w", groupCode, sentinel.ErrNotFound)
	}
	return subject.Clone(), nil
}

func (s *InMemoryStore) SaveSubject(_ context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subject.Key()
	if prev, ok := s.subjects[key]; ok && prev.GroupCode != "" && prev.GroupCode != subject.GroupCode {
		if s.byGroup[prev.GroupCode] == key {
			delete(s.byGroup, prev.GroupCode)
		}
	}
	s.subjects[key] = subject.Clone()
	if subject.GroupCode != "" {
		s.byGroup[subject.GroupCode] = key
	}
	return nil
}

func (s *InMemoryStore) DeleteSubject(_ context.Context, namespace, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.SubjectKey(namespace, identifier)
	if prev, ok := s.subjects[key]; ok && prev.GroupCode != "" && s.byGroup[prev.GroupCode] == key {
		delete(s.byGroup, prev.GroupCode)
	}
	delete(s.subjects, key)
	return nil
}

func (s *InMemoryStore) FindAccessor(_ context.Context, accessorID string) (*models.Accessor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accessor, ok := s.accessors[accessorID]
	if !ok {
		return nil, fmt.Errorf("accessor %s: %w", accessorID, sentinel.ErrNotFound)
	}
	return &accessor, nil
}

func (s *InMemoryStore) SaveAccessor(_ context.Context, accessor *models.Accessor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessors[accessor.ID] = *accessor
	return nil
}

func (s *InMemoryStore) DeleteAccessor(_ context.Context, accessorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accessors, accessorID)
	return nil
}
