package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"idsim/internal/backend"
	"idsim/internal/correlation"
	corrmodels "idsim/internal/correlation/models"
	"idsim/internal/identity/keys"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/identity/store"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/events"
	"idsim/pkg/platform/sentinel"
	"idsim/pkg/requestcontext"
)

// Webhook paths served by the IdP handler and registered with the backend.
const (
	PathIncomingRequest      = "/idp/callback/request"
	PathAccessorSign         = "/idp/callback/accessor/sign"
	PathError                = "/idp/callback/error"
	PathIdentity             = "/idp/callback/identity"
	PathMode                 = "/idp/callback/mode"
	PathIAL                  = "/idp/callback/ial"
	PathAccessor             = "/idp/callback/accessor"
	PathAccessorRevoke       = "/idp/callback/accessor_revoke"
	PathAccessorRevokeAndAdd = "/idp/callback/accessor_revoke_and_add"
	PathAssociationRevoke    = "/idp/callback/association_revoke"
	PathResponse             = "/idp/callback/response"
)

// mockSignature answers mode 1 requests, which carry no accessor.
const mockSignature = "Mock Signature"

// Backend is the subset of the verification backend an IdP calls.
type Backend interface {
	SetIdPCallbacks(ctx context.Context, in backend.IdPCallbacks) error
	CreateIdentity(ctx context.Context, in backend.CreateIdentityRequest) (backend.CreateIdentityResponse, error)
	UpgradeIdentityMode(ctx context.Context, namespace, identifier string, in backend.UpgradeModeRequest) (backend.RequestResponse, error)
	UpdateIAL(ctx context.Context, namespace, identifier string, in backend.UpdateIALRequest) error
	AddAccessor(ctx context.Context, namespace, identifier string, in backend.AddAccessorRequest) (backend.AccessorResponse, error)
	RevokeAccessor(ctx context.Context, namespace, identifier string, in backend.RevokeAccessorRequest) (backend.RequestResponse, error)
	RevokeAndAddAccessor(ctx context.Context, namespace, identifier string, in backend.RevokeAndAddAccessorRequest) (backend.AccessorResponse, error)
	RevokeAssociation(ctx context.Context, namespace, identifier string, in backend.RevokeAssociationRequest) (backend.RequestResponse, error)
	RequestMessagePaddedHash(ctx context.Context, requestID, accessorID string) (string, error)
	CreateIdPResponse(ctx context.Context, in backend.IdPResponse) error
}

// SubjectTx serializes mutations of one subject and commits them together.
type SubjectTx interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context, st store.Store) error, opts ...store.TxOption) error
}

// Scheduler runs work after the triggering call has been acknowledged.
type Scheduler interface {
	Go(parent context.Context, name string, fn func(ctx context.Context) error) error
}

// CallbackURLs are the absolute webhook URLs handed to the backend.
type CallbackURLs struct {
	IncomingRequest      string
	AccessorSign         string
	Error                string
	Identity             string
	Mode                 string
	IAL                  string
	Accessor             string
	AccessorRevoke       string
	AccessorRevokeAndAdd string
	AssociationRevoke    string
	Response             string
}

// NewCallbackURLs prefixes every webhook path with baseURL.
func NewCallbackURLs(baseURL string) CallbackURLs {
	base := strings.TrimRight(baseURL, "/")
	return CallbackURLs{
		IncomingRequest:      base + PathIncomingRequest,
		AccessorSign:         base + PathAccessorSign,
		Error:                base + PathError,
		Identity:             base + PathIdentity,
		Mode:                 base + PathMode,
		IAL:                  base + PathIAL,
		Accessor:             base + PathAccessor,
		AccessorRevoke:       base + PathAccessorRevoke,
		AccessorRevokeAndAdd: base + PathAccessorRevokeAndAdd,
		AssociationRevoke:    base + PathAssociationRevoke,
		Response:             base + PathResponse,
	}
}

// Config carries the IdP settings the flows need.
type Config struct {
	NodeID         string
	AccessorType   string
	KeyBits        int
	UpgradeMessage string
	Callbacks      CallbackURLs
}

// Service runs the IdP identity lifecycle: it initiates backend operations,
// applies their terminal callbacks exactly once and answers verification
// requests on behalf of registered subjects.
type Service struct {
	backend   Backend
	engine    *correlation.Engine
	subjects  store.Store
	tx        SubjectTx
	scheduler Scheduler
	cfg       Config

	logger  *slog.Logger
	emitter events.Emitter
	tracer  trace.Tracer
	keygen  func(bits int) (keys.Pair, error)
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithEmitter publishes committed and discarded transitions.
func WithEmitter(emitter events.Emitter) Option {
	return func(s *Service) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

// WithKeyGenerator replaces RSA key generation, mostly for tests.
func WithKeyGenerator(fn func(bits int) (keys.Pair, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.keygen = fn
		}
	}
}

// WithSleeper replaces the response delay wait.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

func New(
	b Backend,
	engine *correlation.Engine,
	subjects store.Store,
	tx SubjectTx,
	scheduler Scheduler,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if b == nil {
		return nil, errors.New("backend client is required")
	}
	if engine == nil {
		return nil, errors.New("correlation engine is required")
	}
	if subjects == nil {
		return nil, errors.New("identity store is required")
	}
	if tx == nil {
		return nil, errors.New("subject transaction runner is required")
	}
	if scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	if cfg.KeyBits == 0 {
		cfg.KeyBits = 2048
	}
	if cfg.AccessorType == "" {
		cfg.AccessorType = "RSA"
	}

	s := &Service{
		backend:   b,
		engine:    engine,
		subjects:  subjects,
		tx:        tx,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    slog.Default(),
		emitter:   events.Nop{},
		tracer:    otel.Tracer("idsim/idp"),
		keygen:    keys.Generate,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterCallbacks tells the backend where to deliver incoming requests,
// sign challenges and errors.
func (s *Service) RegisterCallbacks(ctx context.Context) error {
	return s.backend.SetIdPCallbacks(ctx, backend.IdPCallbacks{
		IncomingRequestURL: s.cfg.Callbacks.IncomingRequest,
		AccessorSignURL:    s.cfg.Callbacks.AccessorSign,
		ErrorURL:           s.cfg.Callbacks.Error,
	})
}

// GetIdentity returns the committed subject.
func (s *Service) GetIdentity(ctx context.Context, namespace, identifier string) (*idmodels.Subject, error) {
	return s.findSubject(ctx, namespace, identifier)
}

func (s *Service) findSubject(ctx context.Context, namespace, identifier string) (*idmodels.Subject, error) {
	subject, err := s.subjects.FindSubject(ctx, namespace, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown identity")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return subject, nil
}

// resolveSubject looks a subject up by group code first, then by
// namespace and identifier. A miss is (nil, nil).
func (s *Service) resolveSubject(ctx context.Context, groupCode, namespace, identifier string) (*idmodels.Subject, error) {
	if groupCode != "" {
		subject, err := s.subjects.FindSubjectByGroupCode(ctx, groupCode)
		if err == nil {
			return subject, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
	}
	if namespace == "" || identifier == "" {
		return nil, nil
	}
	subject, err := s.subjects.FindSubject(ctx, namespace, identifier)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return subject, err
}

func (s *Service) generateKeys() (keys.Pair, error) {
	pair, err := s.keygen(s.cfg.KeyBits)
	if err != nil {
		return keys.Pair{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate accessor keys")
	}
	return pair, nil
}

// begin records a pending operation and tags ctx with its token.
func (s *Service) begin(ctx context.Context, referenceID string, kind corrmodels.Kind, payload corrmodels.Payload) (context.Context, string, error) {
	token, err := s.engine.Begin(ctx, referenceID, kind, payload)
	if err != nil {
		return ctx, "", err
	}
	return requestcontext.WithReferenceID(ctx, token), token, nil
}

// rollback ends a token whose backend call failed. cause is returned so the
// caller sees the backend's answer.
func (s *Service) rollback(ctx context.Context, token string, kind corrmodels.Kind, cause error) error {
	if err := s.engine.End(ctx, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to end pending operation after backend failure",
			"reference_id", token,
			"error", err,
		)
	}
	s.logger.WarnContext(ctx, "backend rejected operation",
		"reference_id", token,
		"kind", kind,
		"error", cause,
	)
	return cause
}

// mergeAfterCall stores what the backend answered synchronously. The
// terminal callback may already have ended the token, which is fine.
func (s *Service) mergeAfterCall(ctx context.Context, token string, fn func(*corrmodels.Payload)) {
	err := s.engine.Merge(ctx, token, fn)
	if err == nil {
		return
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		s.logger.DebugContext(ctx, "pending operation completed before merge", "reference_id", token)
		return
	}
	s.logger.ErrorContext(ctx, "failed to merge backend answer", "reference_id", token, "error", err)
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.ReferenceID == "" {
		event.ReferenceID = requestcontext.ReferenceID(ctx)
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish lifecycle event", "type", event.Type, "error", err)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "idp."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func subjectAttrs(namespace, identifier string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("identity.namespace", namespace),
		attribute.String("identity.identifier", identifier),
	}
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
