package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idsim/internal/backend"
	"idsim/internal/platform/metrics"
	"idsim/internal/platform/middleware"
	"idsim/internal/rp/models"
	"idsim/internal/rp/service"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/httputil"
	"idsim/pkg/platform/middleware/admin"
	"idsim/pkg/platform/middleware/requesttime"
)

// Service is the RP request flow the handler drives.
type Service interface {
	CreateRequest(ctx context.Context, req *models.CreateRequest) (*models.CreateRequestResult, error)
	CloseRequest(ctx context.Context, req *models.CloseRequest) (*models.CloseRequestResult, error)
	RemoveRequestData(ctx context.Context, requestID string) error
	RemovePrivateMessages(ctx context.Context, requestID string) error
	PrivateMessages(ctx context.Context, requestID string) (json.RawMessage, error)
	RequestData(ctx context.Context, requestID string) (json.RawMessage, error)
	HandleCallback(ctx context.Context, event backend.RequestStatus) error
}

type Handler struct {
	logger     *slog.Logger
	service    Service
	metrics    *metrics.Metrics
	adminToken string
}

func New(svc Service, logger *slog.Logger, m *metrics.Metrics, adminToken string) *Handler {
	return &Handler{
		logger:     logger,
		service:    svc,
		metrics:    m,
		adminToken: adminToken,
	}
}

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
		r.Post("/rp/requests/{namespace}/{identifier}", h.handleCreateRequest)
		r.Post("/rp/request_close", h.handleCloseRequest)
		r.Post("/rp/request_data_removal/{request_id}", h.handleRemoval(h.service.RemoveRequestData))
		r.Post("/utility/private_message_removal/{request_id}", h.handleRemoval(h.service.RemovePrivateMessages))
		r.Get("/utility/private_messages/{request_id}", h.handleRead(h.service.PrivateMessages))
		r.Get("/rp/request_data/{request_id}", h.handleRead(h.service.RequestData))
	})

	router.Post(service.PathRequestCallback+"/{reference_id}", h.handleCallback)
	router.Post(service.PathCloseCallback, h.handleCallback)

	r.Mount("/", router)
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "decode request", err)
		return
	}
	req.Namespace = chi.URLParam(r, "namespace")
	req.Identifier = chi.URLParam(r, "identifier")
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeError(w, r, "validate request", err)
		return
	}
	result, err := h.service.CreateRequest(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, "create request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, result)
}

func (h *Handler) handleCloseRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CloseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "decode request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeError(w, r, "validate request", err)
		return
	}
	result, err := h.service.CloseRequest(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, "close request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, result)
}

func (h *Handler) handleRemoval(op func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(r.Context(), chi.URLParam(r, "request_id")); err != nil {
			h.writeError(w, r, "removal", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleRead(op func(context.Context, string) (json.RawMessage, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := op(r.Context(), chi.URLParam(r, "request_id"))
		if err != nil {
			h.writeError(w, r, "read", err)
			return
		}
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		httputil.WriteJSON(w, http.StatusOK, raw)
	}
}

// handleCallback acknowledges request and close webhooks with 204 unless
// the type is unrecognized. Unreadable bodies are logged and dropped.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var event backend.RequestStatus
	if err := httputil.DecodeJSON(r, &event); err != nil {
		h.logger.WarnContext(ctx, "dropping undecodable callback",
			"request_id", middleware.GetRequestID(ctx),
			"reference_id", chi.URLParam(r, "reference_id"),
			"error", err,
		)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if event.ReferenceID == "" {
		event.ReferenceID = chi.URLParam(r, "reference_id")
	}

	err := h.service.HandleCallback(ctx, event)
	switch {
	case err == nil:
	case errors.Is(err, backend.ErrUnknownCallbackType):
		h.logger.ErrorContext(ctx, "unknown callback type",
			"request_id", middleware.GetRequestID(ctx),
			"type", event.Type,
			"reference_id", event.ReferenceID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "unknown callback type"))
		return
	default:
		h.logger.ErrorContext(ctx, "callback handling failed",
			"request_id", middleware.GetRequestID(ctx),
			"type", event.Type,
			"backend_request_id", event.RequestID,
			"error", err,
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if _, ok := backend.AsError(err); ok || dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed", "request_id", middleware.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, op+" rejected", "request_id", middleware.GetRequestID(ctx), "error", err)
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
