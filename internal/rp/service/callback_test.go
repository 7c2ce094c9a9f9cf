package service

import (
	"errors"

	"go.uber.org/mock/gomock"

	"idsim/internal/backend"
	"idsim/internal/rp/models"
	"idsim/pkg/platform/events"
)

func rejectedStatus(requestID string, validSignature bool) backend.RequestStatus {
	return backend.RequestStatus{
		Type:             backend.TypeRequestStatus,
		RequestID:        requestID,
		ReferenceID:      "ref-1",
		Mode:             3,
		Status:           backend.StatusRejected,
		MinIdP:           1,
		AnsweredIdPCount: 1,
		ResponseValidList: []backend.ResponseValid{
			{IdPID: "idp1", ValidSignature: ptr(validSignature), ValidIAL: ptr(true)},
		},
	}
}

func (s *ServiceSuite) TestStatusUpdateAutoClose() {
	s.createRequest(&models.CreateRequest{Namespace: "citizen_id", Identifier: "123"}, "req-1")

	s.Run("valid rejected answer closes the request", func() {
		s.backend.EXPECT().CloseRequest(gomock.Any(), backend.CloseRequestBody{
			ReferenceID: "generated-ref",
			CallbackURL: "http://rp-1:5001/rp/callback/close",
			RequestID:   "req-1",
		}).Return(nil)

		s.Require().NoError(s.service.HandleCallback(s.ctx, rejectedStatus("req-1", true)))
		s.runner.Wait()

		_, err := s.policies.Find(s.ctx, "req-1")
		s.NoError(err, "policy kept until closed")
	})

	s.Run("invalid signature does not close", func() {
		// no backend call expected
		s.Require().NoError(s.service.OnStatusUpdate(s.ctx, rejectedStatus("req-1", false)))
	})
}

func (s *ServiceSuite) TestStatusUpdateCleanup() {
	s.createRequest(&models.CreateRequest{Namespace: "citizen_id", Identifier: "123", AutoRemovePrivateMessage: ptr(false)}, "req-1")

	closed := backend.RequestStatus{Type: backend.TypeRequestStatus, RequestID: "req-1", Mode: 1, Status: backend.StatusCompleted, Closed: true}

	s.Run("closed request removes data and disposes the policy", func() {
		s.backend.EXPECT().RemoveRequestData(gomock.Any(), "req-1").Return(nil)

		s.Require().NoError(s.service.OnStatusUpdate(s.ctx, closed))
		n, _ := s.policies.Count(s.ctx)
		s.Zero(n)
	})

	s.Run("repeated closed event does nothing", func() {
		s.Require().NoError(s.service.OnStatusUpdate(s.ctx, closed))
	})
}

func (s *ServiceSuite) TestStatusUpdateCleanupFailure() {
	s.createRequest(&models.CreateRequest{Namespace: "citizen_id", Identifier: "123"}, "req-1")

	boom := &backend.Error{Kind: backend.KindNetwork, Op: "remove_request_data", Err: errors.New("refused")}
	s.backend.EXPECT().RemoveRequestData(gomock.Any(), "req-1").Return(boom)
	s.backend.EXPECT().RemovePrivateMessages(gomock.Any(), "req-1").Return(nil)

	err := s.service.OnStatusUpdate(s.ctx, backend.RequestStatus{RequestID: "req-1", Mode: 3, TimedOut: true})
	s.ErrorIs(err, boom)

	n, _ := s.policies.Count(s.ctx)
	s.Zero(n, "policy disposed even when a cleanup call failed")
}

func (s *ServiceSuite) TestHandleCallbackRouting() {
	s.Run("results and errors are acknowledged", func() {
		s.NoError(s.service.HandleCallback(s.ctx, backend.RequestStatus{Type: backend.TypeCreateRequestResult, RequestID: "req-1", Success: true}))
		s.NoError(s.service.HandleCallback(s.ctx, backend.RequestStatus{Type: backend.TypeError, Error: &backend.CallbackError{Code: 1, Message: "x"}}))
	})

	s.Run("close result emits an event", func() {
		s.NoError(s.service.HandleCallback(s.ctx, backend.RequestStatus{Type: backend.TypeCloseRequestResult, RequestID: "req-1", Success: false,
			Error: &backend.CallbackError{Code: 20025, Message: "already closed"}}))
		closed := s.sink.ListByType(events.TypeRequestClosed)
		s.Require().Len(closed, 1)
		s.Equal(events.OutcomeDiscarded, closed[0].Outcome)
		s.Equal("20025: already closed", closed[0].Reason)
	})

	s.Run("unknown type", func() {
		err := s.service.HandleCallback(s.ctx, backend.RequestStatus{Type: "bogus"})
		s.ErrorIs(err, backend.ErrUnknownCallbackType)
	})
}
