package service

import (
	"context"
	"encoding/base64"
	"time"

	"go.uber.org/mock/gomock"

	"idsim/internal/backend"
	corrmodels "idsim/internal/correlation/models"
	"idsim/internal/identity/keys"
	idmodels "idsim/internal/identity/models"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/events"
)

func (s *ServiceSuite) TestIncomingRequestMode3() {
	s.Run("reject with delay answers after the delay", func() {
		sub := s.seedSubject(idmodels.Mode3, "acc-1", "acc-2")
		sub.Response = idmodels.ResponseReject
		sub.Delay = 1
		s.Require().NoError(s.subjects.SaveSubject(s.ctx, sub))

		hash := paddedHash(128, "challenge")
		submitted := make(chan backend.IdPResponse, 1)
		s.backend.EXPECT().RequestMessagePaddedHash(gomock.Any(), "req-1", "acc-1").Return(hash, nil)
		s.backend.EXPECT().CreateIdPResponse(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in backend.IdPResponse) error {
				submitted <- in
				return nil
			})

		start := time.Now()
		err := s.service.HandleIncomingRequest(s.ctx, backend.IncomingRequest{
			RequestID: "req-1", Mode: 3, Namespace: "citizen_id", Identifier: "1234567890123",
			MinIAL: 1.1, MinAAL: 1,
		})
		s.Require().NoError(err)
		s.Less(time.Since(start), time.Second, "the webhook must not wait for the delay")

		var resp backend.IdPResponse
		select {
		case resp = <-submitted:
		case <-time.After(5 * time.Second):
			s.FailNow("response not submitted")
		}
		s.GreaterOrEqual(time.Since(start), time.Second)
		s.Equal(idmodels.ResponseReject, resp.Status)
		s.Equal("req-1", resp.RequestID)
		s.Equal("acc-1", resp.AccessorID)
		s.Equal(2.3, resp.IAL)
		s.Equal(3.0, resp.AAL)
		s.Equal("http://idp-1:5002/idp/callback/response", resp.CallbackURL)
		s.NotEmpty(resp.ReferenceID)

		opened, err := keys.OpenPaddedHash(s.pair.PublicKey, resp.Signature)
		s.Require().NoError(err)
		raw, _ := base64.StdEncoding.DecodeString(hash)
		s.Equal(raw, opened)

		s.runner.Wait()
		s.Len(s.sink.ListByType(events.TypeResponseSubmitted), 1)
	})

	s.Run("group code is preferred over namespace", func() {
		s.seedSubject(idmodels.Mode3, "acc-1")
		s.backend.EXPECT().RequestMessagePaddedHash(gomock.Any(), "req-2", "acc-1").Return(paddedHash(128, "x"), nil)
		s.backend.EXPECT().CreateIdPResponse(gomock.Any(), gomock.Any()).Return(nil)

		s.Require().NoError(s.service.HandleIncomingRequest(s.ctx, backend.IncomingRequest{
			RequestID: "req-2", Mode: 3, ReferenceGroupCode: "grp-1",
		}))
		s.runner.Wait()
	})

	s.Run("unknown identity is not answered", func() {
		s.Require().NoError(s.service.HandleIncomingRequest(s.ctx, backend.IncomingRequest{
			RequestID: "req-3", Mode: 3, Namespace: "citizen_id", Identifier: "nobody",
		}))
		s.runner.Wait()
	})
}

func (s *ServiceSuite) TestIncomingRequestMode1() {
	s.Run("unknown identity accepts at the requested minimum", func() {
		s.backend.EXPECT().CreateIdPResponse(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in backend.IdPResponse) error {
				s.Equal(idmodels.ResponseAccept, in.Status)
				s.Equal(1.1, in.IAL)
				s.Equal(1.0, in.AAL)
				s.Equal(mockSignature, in.Signature)
				s.Empty(in.AccessorID)
				return nil
			})

		s.Require().NoError(s.service.HandleIncomingRequest(s.ctx, backend.IncomingRequest{
			RequestID: "req-4", Mode: 1, Namespace: "citizen_id", Identifier: "nobody", MinIAL: 1.1, MinAAL: 1,
		}))
		s.runner.Wait()
	})

	s.Run("known identity answers with its settings", func() {
		sub := s.seedSubject(idmodels.Mode1)
		sub.Response = idmodels.ResponseReject
		s.Require().NoError(s.subjects.SaveSubject(s.ctx, sub))

		var slept time.Duration
		s.service.sleep = func(_ context.Context, d time.Duration) error {
			slept = d
			return nil
		}
		sub.Delay = 7
		s.Require().NoError(s.subjects.SaveSubject(s.ctx, sub))

		s.backend.EXPECT().CreateIdPResponse(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in backend.IdPResponse) error {
				s.Equal(idmodels.ResponseReject, in.Status)
				s.Equal(2.3, in.IAL)
				return nil
			})

		s.Require().NoError(s.service.HandleIncomingRequest(s.ctx, backend.IncomingRequest{
			RequestID: "req-5", Mode: 1, Namespace: "citizen_id", Identifier: "1234567890123",
		}))
		s.runner.Wait()
		s.Equal(7*time.Second, slept)
	})
}

func (s *ServiceSuite) TestSign() {
	s.Run("committed accessor", func() {
		s.seedSubject(idmodels.Mode3, "acc-1")
		resp, err := s.service.Sign(s.ctx, backend.SignRequest{AccessorID: "acc-1", Message: "hello"})
		s.Require().NoError(err)
		s.NoError(keys.Verify(s.pair.PublicKey, []byte("hello"), resp.Signature))
	})

	s.Run("padded hash", func() {
		hash := paddedHash(128, "abc")
		resp, err := s.service.Sign(s.ctx, backend.SignRequest{AccessorID: "acc-1", RequestMessagePaddedHash: hash})
		s.Require().NoError(err)
		opened, err := keys.OpenPaddedHash(s.pair.PublicKey, resp.Signature)
		s.Require().NoError(err)
		raw, _ := base64.StdEncoding.DecodeString(hash)
		s.Equal(raw, opened)
	})

	s.Run("accessor still being created", func() {
		_, err := s.engine.Begin(s.ctx, "ref-creating", corrmodels.KindCreateIdentity, corrmodels.Payload{
			Namespace: "citizen_id", Identifier: "555", AccessorPrivateKey: s.pair.PrivateKey,
		})
		s.Require().NoError(err)

		resp, err := s.service.Sign(s.ctx, backend.SignRequest{AccessorID: "acc-unknown", ReferenceID: "ref-creating", Message: "m"})
		s.Require().NoError(err)
		s.NoError(keys.Verify(s.pair.PublicKey, []byte("m"), resp.Signature))
	})

	s.Run("unknown key", func() {
		_, err := s.service.Sign(s.ctx, backend.SignRequest{AccessorID: "acc-missing", ReferenceID: "ref-missing"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
