package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"idsim/internal/backend"
	"idsim/internal/rp/metrics"
	"idsim/internal/rp/models"
	"idsim/internal/rp/policy"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/events"
	"idsim/pkg/requestcontext"
)

// Webhook paths served by the RP handler. Request callbacks carry the
// request's reference id as the last path segment.
const (
	PathRequestCallback = "/rp/callback/request"
	PathCloseCallback   = "/rp/callback/close"
)

// Backend is the subset of the verification backend an RP calls.
type Backend interface {
	CreateRequest(ctx context.Context, namespace, identifier string, in backend.CreateRequestBody) (backend.CreateRequestResponse, error)
	CloseRequest(ctx context.Context, in backend.CloseRequestBody) error
	RemoveRequestData(ctx context.Context, requestID string) error
	RemovePrivateMessages(ctx context.Context, requestID string) error
	PrivateMessages(ctx context.Context, requestID string) (json.RawMessage, error)
	RequestData(ctx context.Context, requestID string) (json.RawMessage, error)
}

// Scheduler runs work after the triggering call has been acknowledged.
type Scheduler interface {
	Go(parent context.Context, name string, fn func(ctx context.Context) error) error
}

// Service creates verification requests and carries out the automatic
// close and cleanup calls their policies ask for.
type Service struct {
	backend    Backend
	controller *policy.Controller
	scheduler  Scheduler
	baseURL    string

	logger  *slog.Logger
	metrics *metrics.Metrics
	emitter events.Emitter
	tracer  trace.Tracer
	newRef  func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEmitter(emitter events.Emitter) Option {
	return func(s *Service) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

// WithReferenceGenerator replaces uuid reference ids, mostly for tests.
func WithReferenceGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newRef = fn
		}
	}
}

// New builds the RP service. callbackBaseURL is the externally reachable
// base the backend posts request callbacks to.
func New(b Backend, controller *policy.Controller, scheduler Scheduler, callbackBaseURL string, opts ...Option) (*Service, error) {
	if b == nil {
		return nil, errors.New("backend client is required")
	}
	if controller == nil {
		return nil, errors.New("policy controller is required")
	}
	if scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	s := &Service{
		backend:    b,
		controller: controller,
		scheduler:  scheduler,
		baseURL:    strings.TrimRight(callbackBaseURL, "/"),
		logger:     slog.Default(),
		emitter:    events.Nop{},
		tracer:     otel.Tracer("idsim/rp"),
		newRef:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) requestCallbackURL(referenceID string) string {
	return s.baseURL + PathRequestCallback + "/" + url.PathEscape(referenceID)
}

func (s *Service) closeCallbackURL() string {
	return s.baseURL + PathCloseCallback
}

// CreateRequest asks the backend to open a request and stores its policy.
func (s *Service) CreateRequest(ctx context.Context, req *models.CreateRequest) (_ *models.CreateRequestResult, err error) {
	ctx, span := s.tracer.Start(ctx, "rp.create_request", trace.WithAttributes(
		attribute.String("identity.namespace", req.Namespace),
		attribute.Int("request.mode", req.Mode),
	))
	defer func() { endSpan(span, err) }()

	referenceID := req.ReferenceID
	if referenceID == "" {
		referenceID = s.newRef()
	}
	ctx = requestcontext.WithReferenceID(ctx, referenceID)

	resp, err := s.backend.CreateRequest(ctx, req.Namespace, req.Identifier, backend.CreateRequestBody{
		Mode:                req.Mode,
		ReferenceID:         referenceID,
		CallbackURL:         s.requestCallbackURL(referenceID),
		IdPIDList:           req.IdPIDList,
		DataRequestList:     req.DataRequestList,
		RequestMessage:      req.RequestMessage,
		MinIAL:              req.MinIAL,
		MinAAL:              req.MinAAL,
		MinIdP:              req.MinIdP,
		RequestTimeout:      req.RequestTimeout,
		BypassIdentityCheck: req.BypassIdentityCheck,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "backend rejected request", "reference_id", referenceID, "error", err)
		return nil, err
	}

	// The backend already holds the request, so a lost policy only disables
	// the automatic calls for it.
	policyErr := s.controller.OnRequestCreated(ctx, req.Policy(resp.RequestID, referenceID, requestcontext.Now(ctx)))
	if policyErr != nil {
		s.logger.ErrorContext(ctx, "failed to store request policy",
			"reference_id", referenceID,
			"backend_request_id", resp.RequestID,
			"error", policyErr,
		)
	}
	s.emit(ctx, events.Event{
		Type:       events.TypeRequestCreated,
		Outcome:    events.OutcomeCommitted,
		RequestID:  resp.RequestID,
		Namespace:  req.Namespace,
		Identifier: req.Identifier,
	})
	return &models.CreateRequestResult{RequestID: resp.RequestID, ReferenceID: referenceID}, nil
}

// CloseRequest closes a request with a fresh reference id. The outcome
// arrives on the close webhook.
func (s *Service) CloseRequest(ctx context.Context, req *models.CloseRequest) (*models.CloseRequestResult, error) {
	referenceID := req.ReferenceID
	if referenceID == "" {
		referenceID = s.newRef()
	}
	if err := s.closeRequest(ctx, req.RequestID, referenceID); err != nil {
		return nil, err
	}
	return &models.CloseRequestResult{RequestID: req.RequestID, ReferenceID: referenceID}, nil
}

func (s *Service) closeRequest(ctx context.Context, requestID, referenceID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "rp.close_request", trace.WithAttributes(
		attribute.String("request.id", requestID),
	))
	defer func() { endSpan(span, err) }()

	err = s.backend.CloseRequest(requestcontext.WithReferenceID(ctx, referenceID), backend.CloseRequestBody{
		ReferenceID: referenceID,
		CallbackURL: s.closeCallbackURL(),
		RequestID:   requestID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "backend rejected close request",
			"reference_id", referenceID,
			"backend_request_id", requestID,
			"error", err,
		)
	}
	return err
}

func (s *Service) RemoveRequestData(ctx context.Context, requestID string) error {
	if err := requireRequestID(requestID); err != nil {
		return err
	}
	if err := s.backend.RemoveRequestData(ctx, requestID); err != nil {
		return err
	}
	s.emit(ctx, events.Event{Type: events.TypeRequestDataRemoved, Outcome: events.OutcomeCommitted, RequestID: requestID})
	return nil
}

func (s *Service) RemovePrivateMessages(ctx context.Context, requestID string) error {
	if err := requireRequestID(requestID); err != nil {
		return err
	}
	if err := s.backend.RemovePrivateMessages(ctx, requestID); err != nil {
		return err
	}
	s.emit(ctx, events.Event{Type: events.TypeMessagesRemoved, Outcome: events.OutcomeCommitted, RequestID: requestID})
	return nil
}

func (s *Service) PrivateMessages(ctx context.Context, requestID string) (json.RawMessage, error) {
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}
	return s.backend.PrivateMessages(ctx, requestID)
}

func (s *Service) RequestData(ctx context.Context, requestID string) (json.RawMessage, error) {
	if err := requireRequestID(requestID); err != nil {
		return nil, err
	}
	return s.backend.RequestData(ctx, requestID)
}

func requireRequestID(requestID string) error {
	if strings.TrimSpace(requestID) == "" {
		return dErrors.New(dErrors.CodeValidation, "request_id is required")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.ReferenceID == "" {
		event.ReferenceID = requestcontext.ReferenceID(ctx)
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish request event", "type", event.Type, "error", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
