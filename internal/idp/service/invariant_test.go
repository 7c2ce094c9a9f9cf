package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/mock/gomock"

	"idsim/internal/backend"
	"idsim/internal/identity/keys"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/identity/store"
	"idsim/internal/idp/models"
	"idsim/internal/platform/logger"
)

// keyedStore checks after every write that each accessor id listed by a
// known subject still resolves to an accessor record, the view an unlocked
// reader such as Sign gets.
type keyedStore struct {
	*store.InMemoryStore
	subjects   map[string][2]string
	violations []string
}

func newKeyedStore(inner *store.InMemoryStore) *keyedStore {
	return &keyedStore{InMemoryStore: inner, subjects: make(map[string][2]string)}
}

func (k *keyedStore) track(namespace, identifier string) {
	k.subjects[idmodels.SubjectKey(namespace, identifier)] = [2]string{namespace, identifier}
}

func (k *keyedStore) check(ctx context.Context, step string) {
	for _, id := range k.subjects {
		sub, err := k.InMemoryStore.FindSubject(ctx, id[0], id[1])
		if err != nil {
			continue
		}
		for _, accessorID := range sub.AccessorIDs {
			if _, err := k.InMemoryStore.FindAccessor(ctx, accessorID); err != nil {
				k.violations = append(k.violations, fmt.Sprintf("after %s: %s listed without a record", step, accessorID))
			}
		}
	}
}

func (k *keyedStore) SaveSubject(ctx context.Context, subject *idmodels.Subject) error {
	k.track(subject.Namespace, subject.Identifier)
	err := k.InMemoryStore.SaveSubject(ctx, subject)
	k.check(ctx, "SaveSubject")
	return err
}

func (k *keyedStore) DeleteSubject(ctx context.Context, namespace, identifier string) error {
	err := k.InMemoryStore.DeleteSubject(ctx, namespace, identifier)
	k.check(ctx, "DeleteSubject")
	return err
}

func (k *keyedStore) SaveAccessor(ctx context.Context, accessor *idmodels.Accessor) error {
	err := k.InMemoryStore.SaveAccessor(ctx, accessor)
	k.check(ctx, "SaveAccessor")
	return err
}

func (k *keyedStore) DeleteAccessor(ctx context.Context, accessorID string) error {
	err := k.InMemoryStore.DeleteAccessor(ctx, accessorID)
	k.check(ctx, "DeleteAccessor")
	return err
}

func (s *ServiceSuite) keyedService(st *keyedStore) *Service {
	svc, err := New(s.backend, s.engine, st, store.NewShardedTx(st, time.Second), s.runner,
		Config{NodeID: "idp1", AccessorType: "RSA", KeyBits: 1024, Callbacks: NewCallbackURLs("http://idp-1:5002")},
		WithLogger(logger.Discard()),
		WithKeyGenerator(func(int) (keys.Pair, error) { return s.pair, nil }),
	)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) TestListedAccessorsAlwaysHaveRecords() {
	s.Run("create identity", func() {
		st := newKeyedStore(store.NewInMemory())
		svc := s.keyedService(st)
		s.backend.EXPECT().CreateIdentity(gomock.Any(), gomock.Any()).
			Return(backend.CreateIdentityResponse{RequestID: "req-1", AccessorID: "acc-1"}, nil)

		result, err := svc.CreateIdentity(s.ctx, &models.CreateIdentityRequest{
			Namespace: "citizen_id", Identifier: "1234567890123", Mode: 3,
			IAL: 2.3, AAL: 2.2, Response: idmodels.ResponseAccept,
		})
		s.Require().NoError(err)
		s.Require().NoError(svc.HandleCallback(s.ctx, s.callback(backend.TypeCreateIdentityResult, result.ReferenceID, true)))

		sub, err := st.FindSubject(s.ctx, "citizen_id", "1234567890123")
		s.Require().NoError(err)
		s.Equal([]string{"acc-1"}, sub.AccessorIDs)
		s.Empty(st.violations)
	})

	s.Run("add then revoke and add then revoke association", func() {
		s.seedSubject(idmodels.Mode3, "acc-1")
		st := newKeyedStore(s.subjects)
		st.track("citizen_id", "1234567890123")
		svc := s.keyedService(st)

		s.backend.EXPECT().AddAccessor(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AccessorResponse{RequestID: "req-a", AccessorID: "acc-2"}, nil)
		added, err := svc.AddAccessor(s.ctx, s.accessorRequest())
		s.Require().NoError(err)
		s.Require().NoError(svc.HandleCallback(s.ctx, s.callback(backend.TypeAddAccessorResult, added.ReferenceID, true)))

		s.backend.EXPECT().RevokeAndAddAccessor(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AccessorResponse{RequestID: "req-ra", AccessorID: "acc-3"}, nil)
		req := s.accessorRequest()
		req.RevokingAccessorID = "acc-1"
		replaced, err := svc.RevokeAndAddAccessor(s.ctx, req)
		s.Require().NoError(err)
		s.Require().NoError(svc.HandleCallback(s.ctx, s.callback(backend.TypeRevokeAndAddAccessorResult, replaced.ReferenceID, true)))
		s.Equal([]string{"acc-3", "acc-2"}, s.subject("citizen_id", "1234567890123").AccessorIDs)

		s.backend.EXPECT().RevokeAssociation(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.RequestResponse{RequestID: "req-ras"}, nil)
		revoked, err := svc.RevokeAssociation(s.ctx, s.accessorRequest())
		s.Require().NoError(err)
		s.Require().NoError(svc.HandleCallback(s.ctx, s.callback(backend.TypeRevokeAssociationResult, revoked.ReferenceID, true)))

		s.False(s.hasSubject("citizen_id", "1234567890123"))
		s.Empty(st.violations)
	})
}
