package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idsim/internal/identity/models"
	"idsim/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *InMemoryStoreSuite) subject() *models.Subject {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.Subject{
		Namespace: "citizen_id", Identifier: "123", GroupCode: "G1",
		AccessorIDs: []string{"A1"}, IAL: 2.3, AAL: 2.2,
		Response: models.ResponseAccept, Mode: models.Mode3,
		CreatedAt: now, UpdatedAt: now,
	}
}

func (s *InMemoryStoreSuite) TestSubjectLookups() {
	s.Require().NoError(s.store.SaveSubject(s.ctx, s.subject()))

	byKey, err := s.store.FindSubject(s.ctx, "citizen_id", "123")
	s.Require().NoError(err)
	s.Equal([]string{"A1"}, byKey.AccessorIDs)

	byGroup, err := s.store.FindSubjectByGroupCode(s.ctx, "G1")
	s.Require().NoError(err)
	s.Equal("123", byGroup.Identifier)

	_, err = s.store.FindSubjectByGroupCode(s.ctx, "")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *InMemoryStoreSuite) TestGroupCodeChangeMovesIndex() {
	s.Require().NoError(s.store.SaveSubject(s.ctx, s.subject()))
	moved := s.subject()
	moved.GroupCode = "G2"
	s.Require().NoError(s.store.SaveSubject(s.ctx, moved))

	_, err := s.store.FindSubjectByGroupCode(s.ctx, "G1")
	s.True(errors.Is(err, sentinel.ErrNotFound))
	found, err := s.store.FindSubjectByGroupCode(s.ctx, "G2")
	s.Require().NoError(err)
	s.Equal("123", found.Identifier)
}

func (s *InMemoryStoreSuite) TestReturnedSubjectIsACopy() {
	s.Require().NoError(s.store.SaveSubject(s.ctx, s.subject()))
	found, _ := s.store.FindSubject(s.ctx, "citizen_id", "123")
	found.AccessorIDs[0] = "mutated"

	again, _ := s.store.FindSubject(s.ctx, "citizen_id", "123")
	s.Equal("A1", again.AccessorIDs[0])
}

func (s *InMemoryStoreSuite) TestDeleteSubjectClearsIndex() {
	s.Require().NoError(s.store.SaveSubject(s.ctx, s.subject()))
	s.Require().NoError(s.store.DeleteSubject(s.ctx, "citizen_id", "123"))
	s.Require().NoError(s.store.DeleteSubject(s.ctx, "citizen_id", "123"))

	_, err := s.store.FindSubject(s.ctx, "citizen_id", "123")
	s.True(errors.Is(err, sentinel.ErrNotFound))
	_, err = s.store.FindSubjectByGroupCode(s.ctx, "G1")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *InMemoryStoreSuite) TestAccessors() {
	acc := &models.Accessor{ID: "A1", GroupCode: "G1", PublicKey: "pub", PrivateKey: "priv"}
	s.Require().NoError(s.store.SaveAccessor(s.ctx, acc))

	found, err := s.store.FindAccessor(s.ctx, "A1")
	s.Require().NoError(err)
	s.Equal("priv", found.PrivateKey)

	s.Require().NoError(s.store.DeleteAccessor(s.ctx, "A1"))
	s.Require().NoError(s.store.DeleteAccessor(s.ctx, "A1"))
	_, err = s.store.FindAccessor(s.ctx, "A1")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
