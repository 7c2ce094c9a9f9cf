package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"idsim/internal/backend"
	"idsim/internal/platform/bootstrap"
	"idsim/pkg/platform/events"
	"idsim/pkg/requestcontext"
)

// Webhook paths served by the AS handler.
const (
	PathServiceResult = "/as/callback/service"
	PathDataRequest   = "/as/callback/service/{service_id}"
	PathDataResult    = "/as/callback/data"
	PathError         = "/as/callback/error"
)

// Backend is the subset of the verification backend an AS calls.
type Backend interface {
	RegisterService(ctx context.Context, serviceID string, in backend.RegisterServiceRequest) error
	SendData(ctx context.Context, requestID, serviceID string, in backend.SendDataRequest) error
}

// Source provides the data and delay answered for a subject.
type Source interface {
	Data(serviceID, namespace, identifier string) string
	Delay(namespace, identifier string) int
}

// Scheduler runs work after the triggering call has been acknowledged.
type Scheduler interface {
	Go(parent context.Context, name string, fn func(ctx context.Context) error) error
}

type Config struct {
	Services        []string
	MinIAL          float64
	MinAAL          float64
	CallbackBaseURL string
}

// Service registers this AS's services and answers data requests from its
// Source.
type Service struct {
	backend   Backend
	source    Source
	scheduler Scheduler
	cfg       Config
	baseURL   string

	logger  *slog.Logger
	emitter events.Emitter
	tracer  trace.Tracer
	newRef  func() string
	sleep   func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	registered map[string]bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEmitter(emitter events.Emitter) Option {
	return func(s *Service) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

func WithReferenceGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newRef = fn
		}
	}
}

// WithSleeper replaces the data delay wait.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

func New(b Backend, src Source, scheduler Scheduler, cfg Config, opts ...Option) (*Service, error) {
	if b == nil {
		return nil, errors.New("backend client is required")
	}
	if src == nil {
		return nil, errors.New("data source is required")
	}
	if scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	s := &Service{
		backend:    b,
		source:     src,
		scheduler:  scheduler,
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.CallbackBaseURL, "/"),
		logger:     slog.Default(),
		emitter:    events.Nop{},
		tracer:     otel.Tracer("idsim/as"),
		newRef:     uuid.NewString,
		sleep:      sleepContext,
		registered: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegistrationSteps returns one bootstrap step per configured service.
func (s *Service) RegistrationSteps() []bootstrap.Step {
	steps := make([]bootstrap.Step, 0, len(s.cfg.Services))
	for _, serviceID := range s.cfg.Services {
		serviceID := serviceID
		steps = append(steps, bootstrap.Step{
			Name: "register_service_" + serviceID,
			Run: func(ctx context.Context) error {
				return s.RegisterService(ctx, serviceID)
			},
		})
	}
	return steps
}

// RegisterService offers serviceID at the backend. A service the backend
// already knows counts as registered. Registered services are not offered
// again.
func (s *Service) RegisterService(ctx context.Context, serviceID string) error {
	s.mu.Lock()
	done := s.registered[serviceID]
	s.mu.Unlock()
	if done {
		return nil
	}

	referenceID := s.newRef()
	err := s.backend.RegisterService(requestcontext.WithReferenceID(ctx, referenceID), serviceID, backend.RegisterServiceRequest{
		ReferenceID: referenceID,
		CallbackURL: s.baseURL + PathServiceResult,
		MinIAL:      s.cfg.MinIAL,
		MinAAL:      s.cfg.MinAAL,
		URL:         s.baseURL + strings.Replace(PathDataRequest, "{service_id}", serviceID, 1),
	})
	switch {
	case err == nil:
	case backend.HasCode(err, backend.ErrCodeServiceAlreadyRegistered):
		s.logger.InfoContext(ctx, "service already registered", "service_id", serviceID)
	case isPermanent(err):
		return backoff.Permanent(fmt.Errorf("register service %s: %w", serviceID, err))
	default:
		return fmt.Errorf("register service %s: %w", serviceID, err)
	}

	s.mu.Lock()
	s.registered[serviceID] = true
	s.mu.Unlock()
	s.emit(ctx, events.Event{Type: events.TypeServiceRegistered, Outcome: events.OutcomeCommitted, Reason: serviceID})
	return nil
}

// isPermanent reports backend rejections that a retry cannot fix.
// Unauthorized and not-found answers may resolve once the node is set up,
// so only malformed requests stop the loop.
func isPermanent(err error) bool {
	be, ok := backend.AsError(err)
	return ok && be.Kind == backend.KindLocal
}

// HandleDataRequest schedules the answer to a data request.
func (s *Service) HandleDataRequest(ctx context.Context, req backend.DataRequest) error {
	s.logger.InfoContext(ctx, "data request",
		"backend_request_id", req.RequestID,
		"service_id", req.ServiceID,
		"namespace", req.Namespace,
	)
	return s.scheduler.Go(ctx, "as_send_data", func(ctx context.Context) error {
		return s.sendData(ctx, req)
	})
}

func (s *Service) sendData(ctx context.Context, req backend.DataRequest) (err error) {
	ctx, span := s.tracer.Start(ctx, "as.send_data", trace.WithAttributes(
		attribute.String("service.id", req.ServiceID),
		attribute.String("request.id", req.RequestID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	data := s.source.Data(req.ServiceID, req.Namespace, req.Identifier)
	delay := s.source.Delay(req.Namespace, req.Identifier)
	if err := s.sleep(ctx, time.Duration(delay)*time.Second); err != nil {
		return err
	}

	referenceID := s.newRef()
	ctx = requestcontext.WithReferenceID(ctx, referenceID)
	err = s.backend.SendData(ctx, req.RequestID, req.ServiceID, backend.SendDataRequest{
		ReferenceID: referenceID,
		CallbackURL: s.baseURL + PathDataResult,
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("send data for %s: %w", req.RequestID, err)
	}
	s.emit(ctx, events.Event{
		Type:       events.TypeServiceDataSent,
		Outcome:    events.OutcomeCommitted,
		RequestID:  req.RequestID,
		Namespace:  req.Namespace,
		Identifier: req.Identifier,
	})
	return nil
}

// HandleCallback logs registration and send-data results and errors.
func (s *Service) HandleCallback(ctx context.Context, cb backend.Callback) error {
	if cb.ReferenceID != "" {
		ctx = requestcontext.WithReferenceID(ctx, cb.ReferenceID)
	}
	var msg string
	switch cb.Type {
	case backend.TypeAddOrUpdateServiceResult:
		msg = "add or update service result"
	case backend.TypeSendDataResult:
		msg = "send data result"
	case backend.TypeError:
		s.logger.ErrorContext(ctx, "backend reported error", "reason", callbackReason(cb.Error))
		return nil
	default:
		return fmt.Errorf("%w: %q", backend.ErrUnknownCallbackType, cb.Type)
	}
	if cb.Success {
		s.logger.InfoContext(ctx, msg, "success", true, "backend_request_id", cb.RequestID)
		return nil
	}
	s.logger.ErrorContext(ctx, msg, "success", false, "backend_request_id", cb.RequestID, "reason", callbackReason(cb.Error))
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
		s.logger.WarnContext(ctx, "failed to publish service event", "type", event.Type, "error", err)
	}
}

func callbackReason(cbErr *backend.CallbackError) string {
	if cbErr == nil {
		return ""
	}
	return fmt.Sprintf("%d: %s", cbErr.Code, cbErr.Message)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
