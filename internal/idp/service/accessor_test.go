package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"idsim/internal/backend"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/idp/models"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/events"
)

func (s *ServiceSuite) accessorRequest() *models.AccessorRequest {
	return &models.AccessorRequest{Namespace: "citizen_id", Identifier: "1234567890123"}
}

func (s *ServiceSuite) TestAddAccessor() {
	s.Run("commit grows the accessor list by one", func() {
		s.seedSubject(idmodels.Mode3, "acc-1")
		s.backend.EXPECT().AddAccessor(gomock.Any(), "citizen_id", "1234567890123", gomock.Any()).
			Return(backend.AccessorResponse{RequestID: "req-a", AccessorID: "acc-2"}, nil)

		result, err := s.service.AddAccessor(s.ctx, s.accessorRequest())
		s.Require().NoError(err)
		s.Equal("acc-2", result.AccessorID)
		s.Equal([]string{"acc-1"}, s.subject("citizen_id", "1234567890123").AccessorIDs)

		s.Require().NoError(s.service.HandleCallback(s.ctx, s.callback(backend.TypeAddAccessorResult, result.ReferenceID, true)))
		s.Equal([]string{"acc-1", "acc-2"}, s.subject("citizen_id", "1234567890123").AccessorIDs)

		accessor, err := s.subjects.FindAccessor(s.ctx, "acc-2")
		s.Require().NoError(err)
		s.Equal("grp-1", accessor.GroupCode)
		s.Zero(s.pendingCount())
	})

	s.Run("failed result leaves the list unchanged", func() {
		s.seedSubject(idmodels.Mode3, "acc-1")
		s.backend.EXPECT().AddAccessor(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AccessorResponse{RequestID: "req-b", AccessorID: "acc-9"}, nil)

		result, err := s.service.AddAccessor(s.ctx, s.accessorRequest())
		s.Require().NoError(err)
		s.Require().NoError(s.service.HandleCallback(s.ctx, s.callback(backend.TypeAddAccessorResult, result.ReferenceID, false)))
		s.Equal([]string{"acc-1"}, s.subject("citizen_id", "1234567890123").AccessorIDs)
		_, err = s.subjects.FindAccessor(s.ctx, "acc-9")
		s.Error(err)
	})

	s.Run("accessor id delivered only by the callback", func() {
		s.seedSubject(idmodels.Mode3, "acc-1")
		s.backend.EXPECT().AddAccessor(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AccessorResponse{RequestID: "req-c"}, nil)

		result, err := s.service.AddAccessor(s.ctx, s.accessorRequest())
		s.Require().NoError(err)
		cb := s.callback(backend.TypeAddAccessorResult, result.ReferenceID, true)
		cb.AccessorID = "acc-cb"
		s.Require().NoError(s.service.HandleCallback(s.ctx, cb))
		s.Equal([]string{"acc-1", "acc-cb"}, s.subject("citizen_id", "1234567890123").AccessorIDs)
	})

	s.Run("mode 1 identity cannot hold accessors", func() {
		s.seedSubject(idmodels.Mode1)
		_, err := s.service.AddAccessor(s.ctx, s.accessorRequest())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Zero(s.pendingCount())
	})

	s.Run("backend failure rolls back", func() {
		s.seedSubject(idmodels.Mode3, "acc-1")
		s.backend.EXPECT().AddAccessor(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AccessorResponse{}, &backend.Error{Kind: backend.KindBackend, Status: 400})

		_, err := s.service.AddAccessor(s.ctx, s.accessorRequest())
		s.Require().Error(err)
		s.Zero(s.pendingCount())
	})
}

func (s *ServiceSuite) TestRevokeAccessor() {
	s.Run("commit removes the accessor", func() {
		s.seedSubject(idmodels.Mode3, "acc-1", "acc-2")
		s.backend.EXPECT().RevokeAccessor(gomock.Any(), "citizen_id", "1234567890123", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, in backend.RevokeAccessorRequest) (backend.RequestResponse, error) {
				s.Equal("acc-2", in.AccessorID)
				return backend.RequestResponse{RequestID: "req-r"}, nil
			})

		req := s.accessorRequest()
		req.AccessorID = "acc-2"
		result, err := s.service.RevokeAccessor(s.ctx, req)
		s.Require().NoError(err)

		s.Require().NoError(s.service.HandleCallback(s.ctx, s.callback(backend.TypeRevokeAccessorResult, result.ReferenceID, true)))
		s.Equal([]string{"acc-1"}, s.subject("citizen_id", "1234567890123").AccessorIDs)
		_, err = s.subjects.FindAccessor(s.ctx, "acc-2")
		s.Error(err)
		s.Len(s.sink.ListByType(events.TypeAccessorRevoked), 1)
	})

	s.Run("accessor not listed", func() {
		s.seedSubject(idmodels.Mode3, "acc-1")
		req := s.accessorRequest()
		req.AccessorID = "acc-x"
		_, err := s.service.RevokeAccessor(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("accessor id required", func() {
		_, err := s.service.RevokeAccessor(s.ctx, s.accessorRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestRevokeAndAddAccessor() {
	s.Run("new accessor takes the revoked position", func() {
		s.seedSubject(idmodels.Mode3, "acc-1", "acc-2")
		s.backend.EXPECT().RevokeAndAddAccessor(gomock.Any(), "citizen_id", "1234567890123", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, in backend.RevokeAndAddAccessorRequest) (backend.AccessorResponse, error) {
				s.Equal("acc-1", in.RevokingAccessorID)
				s.Equal(s.pair.PublicKey, in.AccessorPublicKey)
				return backend.AccessorResponse{RequestID: "req-ra", AccessorID: "acc-3"}, nil
			})

		req := s.accessorRequest()
		req.RevokingAccessorID = "acc-1"
		result, err := s.service.RevokeAndAddAccessor(s.ctx, req)
		s.Require().NoError(err)

		s.Require().NoError(s.service.HandleCallback(s.ctx, s.callback(backend.TypeRevokeAndAddAccessorResult, result.ReferenceID, true)))
		s.Equal([]string{"acc-3", "acc-2"}, s.subject("citizen_id", "1234567890123").AccessorIDs)

		_, err = s.subjects.FindAccessor(s.ctx, "acc-1")
		s.Error(err)
		added, err := s.subjects.FindAccessor(s.ctx, "acc-3")
		s.Require().NoError(err)
		s.Equal(s.pair.PrivateKey, added.PrivateKey)
	})

	s.Run("failed result keeps both lists and keys", func() {
		s.seedSubject(idmodels.Mode3, "acc-1", "acc-2")
		s.backend.EXPECT().RevokeAndAddAccessor(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(backend.AccessorResponse{RequestID: "req-rb", AccessorID: "acc-4"}, nil)

		req := s.accessorRequest()
		req.RevokingAccessorID = "acc-1"
		result, err := s.service.RevokeAndAddAccessor(s.ctx, req)
		s.Require().NoError(err)

		s.Require().NoError(s.service.HandleCallback(s.ctx, s.callback(backend.TypeRevokeAndAddAccessorResult, result.ReferenceID, false)))
		s.Equal([]string{"acc-1", "acc-2"}, s.subject("citizen_id", "1234567890123").AccessorIDs)
		_, err = s.subjects.FindAccessor(s.ctx, "acc-1")
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestRevokeAssociation() {
	s.seedSubject(idmodels.Mode3, "acc-1", "acc-2")
	s.backend.EXPECT().RevokeAssociation(gomock.Any(), "citizen_id", "1234567890123", gomock.Any()).
		Return(backend.RequestResponse{RequestID: "req-ras"}, nil)

	result, err := s.service.RevokeAssociation(s.ctx, s.accessorRequest())
	s.Require().NoError(err)
	s.True(s.hasSubject("citizen_id", "1234567890123"))

	s.Require().NoError(s.service.HandleCallback(s.ctx, s.callback(backend.TypeRevokeAssociationResult, result.ReferenceID, true)))
	s.False(s.hasSubject("citizen_id", "1234567890123"))
	for _, id := range []string{"acc-1", "acc-2"} {
		_, err := s.subjects.FindAccessor(s.ctx, id)
		s.Error(err, id)
	}
	s.Zero(s.pendingCount())
}
