package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idsim/internal/as/service"
	"idsim/internal/backend"
	"idsim/internal/platform/metrics"
	"idsim/internal/platform/middleware"
	dErrors "idsim/pkg/domain-errors"
	"idsim/pkg/platform/httputil"
	"idsim/pkg/platform/middleware/requesttime"
)

// Service is the AS behaviour behind the webhooks.
type Service interface {
	HandleDataRequest(ctx context.Context, req backend.DataRequest) error
	HandleCallback(ctx context.Context, cb backend.Callback) error
}

// Handler serves the AS webhooks. An AS has no local command API.
type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
}

func New(svc Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, service: svc, metrics: m}
}

func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(requesttime.Middleware)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics, routePattern))

	router.Post(service.PathDataRequest, h.handleDataRequest)
	router.Post(service.PathServiceResult, h.handleCallback)
	router.Post(service.PathDataResult, h.handleCallback)
	router.Post(service.PathError, h.handleCallback)

	r.Mount("/", router)
}

func (h *Handler) handleDataRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req backend.DataRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "dropping undecodable data request", "request_id", middleware.GetRequestID(ctx), "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if req.ServiceID == "" {
		req.ServiceID = chi.URLParam(r, "service_id")
	}
	if err := h.service.HandleDataRequest(ctx, req); err != nil {
		h.logger.ErrorContext(ctx, "failed to schedule data response",
			"request_id", middleware.GetRequestID(ctx),
			"backend_request_id", req.RequestID,
			"error", err,
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var cb backend.Callback
	if err := httputil.DecodeJSON(r, &cb); err != nil {
		h.logger.WarnContext(ctx, "dropping undecodable callback", "request_id", middleware.GetRequestID(ctx), "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if cb.Type == "" {
		switch r.URL.Path {
		case service.PathError:
			cb.Type = backend.TypeError
		case service.PathServiceResult:
			cb.Type = backend.TypeAddOrUpdateServiceResult
		case service.PathDataResult:
			cb.Type = backend.TypeSendDataResult
		}
	}

	if err := h.service.HandleCallback(ctx, cb); err != nil {
		h.logger.ErrorContext(ctx, "callback handling failed",
			"request_id", middleware.GetRequestID(ctx),
			"type", cb.Type,
			"error", err,
		)
		if errors.Is(err, backend.ErrUnknownCallbackType) {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "unknown callback type"))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
