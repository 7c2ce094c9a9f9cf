package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/mock/gomock"

	"idsim/internal/backend"
	corrmodels "idsim/internal/correlation/models"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/identity/store"
	"idsim/internal/idp/models"
	"idsim/internal/platform/logger"
	"idsim/pkg/platform/events"
)

var errCommitFailed = errors.New("commit: connection reset")

// rollbackTx runs fn against a scratch copy of the subject and then reports a
// failed commit, so nothing reaches the real store and after-commit hooks
// never run.
type rollbackTx struct {
	subject *idmodels.Subject
}

func (t rollbackTx) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context, st store.Store) error, _ ...store.TxOption) error {
	scratch := store.NewInMemory()
	if err := scratch.SaveSubject(ctx, t.subject.Clone()); err != nil {
		return err
	}
	if err := fn(ctx, scratch); err != nil {
		return err
	}
	return errCommitFailed
}

func (s *ServiceSuite) startAddAccessor() string {
	s.seedSubject(idmodels.Mode3, "acc-1")
	s.backend.EXPECT().AddAccessor(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(backend.AccessorResponse{RequestID: "req-a", AccessorID: "acc-2"}, nil)
	result, err := s.service.AddAccessor(s.ctx, &models.AccessorRequest{Namespace: "citizen_id", Identifier: "1234567890123"})
	s.Require().NoError(err)
	return result.ReferenceID
}

func (s *ServiceSuite) TestDuplicateCallback() {
	s.Run("sequential redelivery is a no-op", func() {
		token := s.startAddAccessor()
		cb := s.callback(backend.TypeAddAccessorResult, token, true)

		s.Require().NoError(s.service.HandleCallback(s.ctx, cb))
		s.Require().NoError(s.service.HandleCallback(s.ctx, cb))

		s.Equal([]string{"acc-1", "acc-2"}, s.subject("citizen_id", "1234567890123").AccessorIDs)
	})

	s.Run("concurrent deliveries apply once", func() {
		s.Require().NoError(s.subjects.DeleteAccessor(s.ctx, "acc-2"))
		token := s.startAddAccessor()
		cb := s.callback(backend.TypeAddAccessorResult, token, true)
		before := len(s.sink.ListByType(events.TypeAccessorAdded))

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.service.HandleCallback(s.ctx, cb)
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			s.NoError(err)
		}
		s.Equal([]string{"acc-1", "acc-2"}, s.subject("citizen_id", "1234567890123").AccessorIDs)
		s.Len(s.sink.ListByType(events.TypeAccessorAdded), before+1)
	})
}

func (s *ServiceSuite) TestCallbackRouting() {
	s.Run("unknown reference is ignored", func() {
		err := s.service.HandleCallback(s.ctx, s.callback(backend.TypeAddAccessorResult, "never-issued", true))
		s.NoError(err)
	})

	s.Run("unknown type is an error", func() {
		err := s.service.HandleCallback(s.ctx, backend.Callback{Type: "surprise", ReferenceID: "x"})
		s.ErrorIs(err, backend.ErrUnknownCallbackType)
	})

	s.Run("result for a different flow leaves the record", func() {
		token := s.startAddAccessor()
		s.Require().NoError(s.service.HandleCallback(s.ctx, s.callback(backend.TypeRevokeAccessorResult, token, true)))

		op, err := s.engine.Get(s.ctx, token)
		s.Require().NoError(err)
		s.Equal(corrmodels.KindAddAccessor, op.Kind)
		s.Require().NoError(s.engine.End(s.ctx, token))
	})

	s.Run("informational callbacks are acknowledged", func() {
		s.NoError(s.service.HandleCallback(s.ctx, backend.Callback{Type: backend.TypeResponseResult, RequestID: "r", Success: true}))
		s.NoError(s.service.HandleCallback(s.ctx, backend.Callback{
			Type:  backend.TypeError,
			Error: &backend.CallbackError{Code: 1, Message: "boom"},
		}))
	})

	s.Run("subject gone before the result", func() {
		before := s.pendingCount()
		token := s.startAddAccessor()
		s.Require().NoError(s.subjects.DeleteSubject(s.ctx, "citizen_id", "1234567890123"))

		s.Require().NoError(s.service.HandleCallback(s.ctx, s.callback(backend.TypeAddAccessorResult, token, true)))
		s.False(s.hasSubject("citizen_id", "1234567890123"))
		s.Equal(before, s.pendingCount())
	})
}

func (s *ServiceSuite) TestFailedCommitKeepsToken() {
	token := s.startAddAccessor()
	cb := s.callback(backend.TypeAddAccessorResult, token, true)

	failing, err := New(s.backend, s.engine, s.subjects, rollbackTx{subject: s.subject("citizen_id", "1234567890123")}, s.runner,
		Config{NodeID: "idp1", KeyBits: 1024, Callbacks: NewCallbackURLs("http://idp-1:5002")},
		WithLogger(logger.Discard()),
	)
	s.Require().NoError(err)

	err = failing.HandleCallback(s.ctx, cb)
	s.ErrorIs(err, errCommitFailed)
	_, err = s.engine.Get(s.ctx, token)
	s.Require().NoError(err, "token must survive a failed commit")
	s.Equal([]string{"acc-1"}, s.subject("citizen_id", "1234567890123").AccessorIDs)

	s.Require().NoError(s.service.HandleCallback(s.ctx, cb))
	s.Equal([]string{"acc-1", "acc-2"}, s.subject("citizen_id", "1234567890123").AccessorIDs)
	s.Zero(s.pendingCount())
}

func (s *ServiceSuite) TestCallbackBeforeBegin() {
	s.seedSubject(idmodels.Mode3, "acc-1")
	payload := corrmodels.Payload{
		Namespace: "citizen_id", Identifier: "1234567890123", AccessorID: "acc-late",
		AccessorPublicKey: s.pair.PublicKey, AccessorPrivateKey: s.pair.PrivateKey,
	}

	done := make(chan error, 1)
	go func() {
		done <- s.service.HandleCallback(s.ctx, s.callback(backend.TypeAddAccessorResult, "ref-early", true))
	}()
	_, err := s.engine.Begin(s.ctx, "ref-early", corrmodels.KindAddAccessor, payload)
	s.Require().NoError(err)

	s.Require().NoError(<-done)
	s.Equal([]string{"acc-1", "acc-late"}, s.subject("citizen_id", "1234567890123").AccessorIDs)
}
