package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"idsim/internal/backend"
	"idsim/internal/identity/keys"
	idmodels "idsim/internal/identity/models"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/events"
	"idsim/pkg/platform/sentinel"
)

// HandleIncomingRequest schedules the answer to a verification request and
// returns at once; the webhook is acknowledged before any delay elapses.
func (s *Service) HandleIncomingRequest(ctx context.Context, req backend.IncomingRequest) error {
	s.logger.InfoContext(ctx, "incoming request",
		"request_id", req.RequestID,
		"mode", req.Mode,
		"namespace", req.Namespace,
		"identifier", req.Identifier,
		"requester_node_id", req.RequesterNodeID,
	)
	return s.scheduler.Go(ctx, "idp_response", func(ctx context.Context) error {
		return s.respond(ctx, req)
	})
}

func (s *Service) respond(ctx context.Context, req backend.IncomingRequest) (err error) {
	ctx, span := s.startSpan(ctx, "respond",
		attribute.String("request.id", req.RequestID),
		attribute.Int("request.mode", req.Mode))
	defer func() { endSpan(span, err) }()

	subject, err := s.resolveSubject(ctx, req.ReferenceGroupCode, req.Namespace, req.Identifier)
	if err != nil {
		return fmt.Errorf("resolve identity: %w", err)
	}

	var resp backend.IdPResponse
	if req.Mode >= idmodels.Mode2 {
		resp, err = s.accessorResponse(ctx, req, subject)
	} else {
		resp, err = s.mockResponse(ctx, req, subject)
	}
	if err != nil {
		return err
	}

	resp.ReferenceID = uuid.NewString()
	resp.CallbackURL = s.cfg.Callbacks.Response
	resp.RequestID = req.RequestID
	if err := s.backend.CreateIdPResponse(ctx, resp); err != nil {
		return fmt.Errorf("submit response: %w", err)
	}

	s.logger.InfoContext(ctx, "response submitted",
		"request_id", req.RequestID,
		"reference_id", resp.ReferenceID,
		"status", resp.Status,
		"accessor_id", resp.AccessorID,
	)
	event := events.Event{
		Type:        events.TypeResponseSubmitted,
		Outcome:     events.OutcomeCommitted,
		ReferenceID: resp.ReferenceID,
		RequestID:   req.RequestID,
		AccessorID:  resp.AccessorID,
		Reason:      resp.Status,
	}
	if subject != nil {
		event.Namespace = subject.Namespace
		event.Identifier = subject.Identifier
	}
	s.emit(ctx, event)
	return nil
}

// accessorResponse signs the request's padded hash with the subject's first
// accessor key after the subject's configured delay.
func (s *Service) accessorResponse(ctx context.Context, req backend.IncomingRequest, subject *idmodels.Subject) (backend.IdPResponse, error) {
	if subject == nil {
		return backend.IdPResponse{}, dErrors.New(dErrors.CodeNotFound, "no identity for incoming request")
	}
	accessorID, ok := subject.FirstAccessorID()
	if !ok {
		return backend.IdPResponse{}, fmt.Errorf("%w: identity %s has no accessor", errInconsistent, subject.Key())
	}
	accessor, err := s.subjects.FindAccessor(ctx, accessorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return backend.IdPResponse{}, fmt.Errorf("%w: accessor %s has no key", errInconsistent, accessorID)
		}
		return backend.IdPResponse{}, err
	}

	if err := s.sleep(ctx, delayOf(subject)); err != nil {
		return backend.IdPResponse{}, err
	}

	hash, err := s.backend.RequestMessagePaddedHash(ctx, req.RequestID, accessorID)
	if err != nil {
		return backend.IdPResponse{}, fmt.Errorf("fetch padded hash: %w", err)
	}
	signature, err := keys.SignPaddedHash(accessor.PrivateKey, hash)
	if err != nil {
		return backend.IdPResponse{}, fmt.Errorf("sign padded hash: %w", err)
	}

	return backend.IdPResponse{
		AccessorID: accessorID,
		IAL:        subject.IAL,
		AAL:        subject.AAL,
		Status:     subject.Response,
		Signature:  signature,
	}, nil
}

// mockResponse answers a mode 1 request. Unknown subjects accept at the
// requested minimum levels.
func (s *Service) mockResponse(ctx context.Context, req backend.IncomingRequest, subject *idmodels.Subject) (backend.IdPResponse, error) {
	if subject == nil {
		return backend.IdPResponse{
			IAL:       req.MinIAL,
			AAL:       req.MinAAL,
			Status:    idmodels.ResponseAccept,
			Signature: mockSignature,
		}, nil
	}
	if err := s.sleep(ctx, delayOf(subject)); err != nil {
		return backend.IdPResponse{}, err
	}
	return backend.IdPResponse{
		IAL:       subject.IAL,
		AAL:       subject.AAL,
		Status:    subject.Response,
		Signature: mockSignature,
	}, nil
}

func delayOf(subject *idmodels.Subject) time.Duration {
	return time.Duration(subject.Delay) * time.Second
}
