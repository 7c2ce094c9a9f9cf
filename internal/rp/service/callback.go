package service

import (
	"context"
	"errors"
	"fmt"

	"idsim/internal/backend"
	"idsim/pkg/platform/events"
	"idsim/pkg/requestcontext"
)

// HandleCallback processes one request or close webhook. Status updates
// run after the webhook is acknowledged; every other type is logged.
func (s *Service) HandleCallback(ctx context.Context, event backend.RequestStatus) error {
	if event.ReferenceID != "" {
		ctx = requestcontext.WithReferenceID(ctx, event.ReferenceID)
	}
	switch event.Type {
	case backend.TypeRequestStatus:
		s.logger.InfoContext(ctx, "request status",
			"backend_request_id", event.RequestID,
			"status", event.Status,
			"answered_idp_count", event.AnsweredIdPCount,
			"closed", event.Closed,
			"timed_out", event.TimedOut,
		)
		return s.scheduler.Go(ctx, "rp_status_update", func(ctx context.Context) error {
			return s.OnStatusUpdate(ctx, event)
		})
	case backend.TypeCreateRequestResult:
		s.logResult(ctx, "create request result", event)
		return nil
	case backend.TypeCloseRequestResult:
		s.logResult(ctx, "close request result", event)
		outcome := events.OutcomeCommitted
		if !event.Success {
			outcome = events.OutcomeDiscarded
		}
		s.emit(ctx, events.Event{
			Type:      events.TypeRequestClosed,
			Outcome:   outcome,
			RequestID: event.RequestID,
			Reason:    callbackReason(event.Error),
		})
		return nil
	case backend.TypeError:
		s.logger.ErrorContext(ctx, "backend reported error",
			"backend_request_id", event.RequestID,
			"reason", callbackReason(event.Error),
		)
		return nil
	default:
		return fmt.Errorf("%w: %q", backend.ErrUnknownCallbackType, event.Type)
	}
}

// OnStatusUpdate carries out what the request's policy asks for. The policy
// is disposed once the request is closed or timed out, even when a cleanup
// call failed.
func (s *Service) OnStatusUpdate(ctx context.Context, event backend.RequestStatus) (err error) {
	ctx, span := s.tracer.Start(ctx, "rp.status_update")
	defer func() { endSpan(span, err) }()

	actions, err := s.controller.OnStatusUpdate(ctx, event)
	if err != nil {
		return err
	}
	if !actions.Valid {
		s.logger.WarnContext(ctx, "request has invalid responses",
			"backend_request_id", event.RequestID,
			"status", event.Status,
		)
	}

	var errs []error
	if actions.Close {
		referenceID := s.newRef()
		cerr := s.closeRequest(ctx, event.RequestID, referenceID)
		s.metrics.IncrementAction("close", cerr)
		if cerr == nil {
			s.logger.InfoContext(ctx, "auto close requested",
				"backend_request_id", event.RequestID,
				"reference_id", referenceID,
			)
		}
		errs = append(errs, cerr)
	}
	if actions.RemoveData {
		rerr := s.RemoveRequestData(ctx, event.RequestID)
		s.metrics.IncrementAction("remove_data", rerr)
		errs = append(errs, rerr)
	}
	if actions.RemovePrivateMessages {
		rerr := s.RemovePrivateMessages(ctx, event.RequestID)
		s.metrics.IncrementAction("remove_private_messages", rerr)
		errs = append(errs, rerr)
	}
	if actions.Dispose {
		errs = append(errs, s.controller.Dispose(ctx, event.RequestID))
	}
	return errors.Join(errs...)
}

func (s *Service) logResult(ctx context.Context, msg string, event backend.RequestStatus) {
	if event.Success {
		s.logger.InfoContext(ctx, msg, "backend_request_id", event.RequestID, "success", true)
		return
	}
	s.logger.ErrorContext(ctx, msg,
		"backend_request_id", event.RequestID,
		"success", false,
		"reason", callbackReason(event.Error),
	)
}

func callbackReason(cbErr *backend.CallbackError) string {
	if cbErr == nil {
		return ""
	}
	return fmt.Sprintf("%d: %s", cbErr.Code, cbErr.Message)
}
