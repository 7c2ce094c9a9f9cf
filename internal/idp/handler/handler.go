package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"idsim/internal/backend"
	idmodels "idsim/internal/identity/models"
	"idsim/internal/idp/models"
	"idsim/internal/idp/service"
	"idsim/internal/platform/metrics"
	"idsim/internal/platform/middleware"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/httputil"
	"idsim/pkg/platform/middleware/admin"
	"idsim/pkg/platform/middleware/requesttime"
)

// Service is the IdP lifecycle the handler drives.
type Service interface {
	CreateIdentity(ctx context.Context, req *models.CreateIdentityRequest) (*models.OperationResult, error)
	GetIdentity(ctx context.Context, namespace, identifier string) (*idmodels.Subject, error)
	UpdateMode(ctx context.Context, req *models.UpdateModeRequest) (*models.OperationResult, error)
	UpdateIAL(ctx context.Context, req *models.UpdateIALRequest) (*models.OperationResult, error)
	UpdateIdentity(ctx context.Context, req *models.UpdateIdentityRequest) (*idmodels.Subject, error)
	AddAccessor(ctx context.Context, req *models.AccessorRequest) (*models.OperationResult, error)
	RevokeAccessor(ctx context.Context, req *models.AccessorRequest) (*models.OperationResult, error)
	RevokeAndAddAccessor(ctx context.Context, req *models.AccessorRequest) (*models.OperationResult, error)
	RevokeAssociation(ctx context.Context, req *models.AccessorRequest) (*models.OperationResult, error)
	HandleCallback(ctx context.Context, cb backend.Callback) error
	HandleIncomingRequest(ctx context.Context, req backend.IncomingRequest) error
	Sign(ctx context.Context, req backend.SignRequest) (backend.SignResponse, error)
}

// webhookTimeout bounds a webhook including its wait for a raced pending record.
const webhookTimeout = 30 * time.Second

type requestModel interface {
	Normalize()
	Validate() error
}

// Handler serves the IdP's local command API and backend webhooks.
type Handler struct {
	logger     *slog.Logger
	service    Service
	metrics    *metrics.Metrics
	adminToken string
}

// New creates an IdP Handler. metrics may be nil.
func New(svc Service, logger *slog.Logger, m *metrics.Metrics, adminToken string) *Handler {
	return &Handler{
		logger:     logger,
		service:    svc,
		metrics:    m,
		adminToken: adminToken,
	}
}

// Register mounts command routes behind the admin token and webhooks open.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(requesttime.Middleware)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics, routePattern))

	router.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
		r.Post("/identity", h.handleCreateIdentity)
		r.Get("/identity/{namespace}/{identifier}", h.handleGetIdentity)
		r.Post("/identity/{namespace}/{identifier}/mode", h.handleUpdateMode)
		r.Post("/identity/{namespace}/{identifier}/ial", h.handleUpdateIAL)
		r.Post("/identity/{namespace}/{identifier}/accessors", h.handleAccessor(h.service.AddAccessor))
		r.Post("/identity/{namespace}/{identifier}/accessor_revoke", h.handleAccessor(h.service.RevokeAccessor))
		r.Post("/identity/{namespace}/{identifier}/accessor_revoke_and_add", h.handleAccessor(h.service.RevokeAndAddAccessor))
		r.Post("/identity/{namespace}/{identifier}/association_revoke", h.handleAccessor(h.service.RevokeAssociation))
		r.Post("/updateIdentity", h.handleUpdateIdentity)
		r.Post("/updateMode", h.handleUpdateMode)
		r.Post("/updateIAL", h.handleUpdateIAL)
	})

	router.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(webhookTimeout))
		r.Post(service.PathIncomingRequest, h.handleIncomingRequest)
		r.Post(service.PathAccessorSign, h.handleSign)
		r.Post(service.PathError, h.handleCallback)
		r.Post(service.PathIdentity, h.handleCallback)
		r.Post(service.PathMode, h.handleCallback)
		r.Post(service.PathIAL, h.handleCallback)
		r.Post(service.PathAccessor, h.handleCallback)
		r.Post(service.PathAccessorRevoke, h.handleCallback)
		r.Post(service.PathAccessorRevokeAndAdd, h.handleCallback)
		r.Post(service.PathAssociationRevoke, h.handleCallback)
		r.Post(service.PathResponse, h.handleCallback)
	})

	r.Mount("/", router)
}

func (h *Handler) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req models.CreateIdentityRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.CreateIdentity(r.Context(), &req)
	h.writeResult(w, r, "create identity", result, err)
}

func (h *Handler) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	subject, err := h.service.GetIdentity(r.Context(), chi.URLParam(r, "namespace"), chi.URLParam(r, "identifier"))
	if err != nil {
		h.writeError(w, r, "get identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, subject)
}

// handleUpdateMode serves both /identity/{ns}/{id}/mode and the legacy
// /updateMode, which carries namespace and identifier in the body.
func (h *Handler) handleUpdateMode(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateModeRequest
	if !h.decodeSubject(w, r, &req, &req.Namespace, &req.Identifier) {
		return
	}
	result, err := h.service.UpdateMode(r.Context(), &req)
	h.writeResult(w, r, "update mode", result, err)
}

func (h *Handler) handleUpdateIAL(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateIALRequest
	if !h.decodeSubject(w, r, &req, &req.Namespace, &req.Identifier) {
		return
	}
	result, err := h.service.UpdateIAL(r.Context(), &req)
	h.writeResult(w, r, "update ial", result, err)
}

func (h *Handler) handleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateIdentityRequest
	if !h.decode(w, r, &req) {
		return
	}
	subject, err := h.service.UpdateIdentity(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, "update identity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, subject)
}

func (h *Handler) handleAccessor(op func(context.Context, *models.AccessorRequest) (*models.OperationResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.AccessorRequest
		if !h.decodeSubject(w, r, &req, &req.Namespace, &req.Identifier) {
			return
		}
		result, err := op(r.Context(), &req)
		h.writeResult(w, r, "accessor operation", result, err)
	}
}

func (h *Handler) handleIncomingRequest(w http.ResponseWriter, r *http.Request) {
	var req backend.IncomingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.dropWebhook(w, r, "incoming request", err)
		return
	}
	if err := h.service.HandleIncomingRequest(r.Context(), req); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to schedule response",
			"request_id", middleware.GetRequestID(r.Context()),
			"backend_request_id", req.RequestID,
			"error", err,
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	var req backend.SignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "decode sign request", err)
		return
	}
	resp, err := h.service.Sign(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to sign challenge",
			"request_id", middleware.GetRequestID(r.Context()),
			"accessor_id", req.AccessorID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "sign failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleCallback acknowledges every result webhook. Only an unrecognized
// type is answered with an error status.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var cb backend.Callback
	if err := httputil.DecodeJSON(r, &cb); err != nil {
		h.dropWebhook(w, r, "callback", err)
		return
	}
	if cb.Type == "" && r.URL.Path == service.PathError {
		cb.Type = backend.TypeError
	}

	err := h.service.HandleCallback(ctx, cb)
	switch {
	case err == nil:
	case errors.Is(err, backend.ErrUnknownCallbackType):
		h.logger.ErrorContext(ctx, "unknown callback type",
			"request_id", middleware.GetRequestID(ctx),
			"type", cb.Type,
			"reference_id", cb.ReferenceID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "unknown callback type"))
		return
	default:
		h.logger.ErrorContext(ctx, "callback handling failed",
			"request_id", middleware.GetRequestID(ctx),
			"type", cb.Type,
			"reference_id", cb.ReferenceID,
			"error", err,
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

// dropWebhook acknowledges an unreadable webhook so the backend does not
// redeliver it.
func (h *Handler) dropWebhook(w http.ResponseWriter, r *http.Request, kind string, err error) {
	h.logger.WarnContext(r.Context(), "dropping undecodable webhook",
		"request_id", middleware.GetRequestID(r.Context()),
		"webhook", kind,
		"error", err,
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req requestModel) bool {
	if err := httputil.DecodeJSON(r, req); err != nil {
		h.writeError(w, r, "decode request", err)
		return false
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeError(w, r, "validate request", err)
		return false
	}
	return true
}

// decodeSubject is decode with namespace and identifier taken from the
// path when the route has them.
func (h *Handler) decodeSubject(w http.ResponseWriter, r *http.Request, req requestModel, namespace, identifier *string) bool {
	if err := httputil.DecodeJSON(r, req); err != nil {
		h.writeError(w, r, "decode request", err)
		return false
	}
	if ns := chi.URLParam(r, "namespace"); ns != "" {
		*namespace = ns
	}
	if id := chi.URLParam(r, "identifier"); id != "" {
		*identifier = id
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeError(w, r, "validate request", err)
		return false
	}
	return true
}

// writeResult answers 200 for changes committed locally and 202 for
// operations still waiting on the backend.
func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, op string, result *models.OperationResult, err error) {
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	status := http.StatusAccepted
	if result.Committed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, result)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if _, ok := backend.AsError(err); ok || code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, op+" rejected",
			"request_id", middleware.GetRequestID(ctx),
			"code", code,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
