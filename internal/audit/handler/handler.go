package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gatehouse/internal/audit"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

// Service defines the interface for audit query operations.
type Service interface {
	ListByActor(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]audit.Event, error)
	ListByResource(ctx context.Context, tenantID id.TenantID, resourceType, resourceID string) ([]audit.Event, error)
	ListRecent(ctx context.Context, tenantID id.TenantID, limit int) ([]audit.Event, error)
}

// Handler wires audit query endpoints to the recorder.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/events", h.HandleListRecent)
	r.Get("/audit/events/actor/{actorID}", h.HandleListByActor)
	r.Get("/audit/events/resource/{resourceType}/{resourceID}", h.HandleListByResource)
}

// HandleListRecent handles GET /audit/events requests.
func (h *Handler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	events, err := h.service.ListRecent(ctx, tenantID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestID,
			"tenant_id", tenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// HandleListByActor handles GET /audit/events/actor/{actorID} requests.
func (h *Handler) HandleListByActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	actorID, err := id.ParseActorID(chi.URLParam(r, "actorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.ListByActor(ctx, tenantID, actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list actor audit events",
			"request_id", requestID,
			"tenant_id", tenantID,
			"actor_id", actorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

// HandleListByResource handles GET /audit/events/resource/{resourceType}/{resourceID} requests.
func (h *Handler) HandleListByResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	resourceType := chi.URLParam(r, "resourceType")
	resourceID := chi.URLParam(r, "resourceID")

	events, err := h.service.ListByResource(ctx, tenantID, resourceType, resourceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list resource audit events",
			"request_id", requestID,
			"tenant_id", tenantID,
			"resource_type", resourceType,
			"resource_id", resourceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromEvents(events))
}

func (h *Handler) requireTenant(w http.ResponseWriter, ctx context.Context) (id.TenantID, bool) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.TenantID{}, false
	}
	return tenantID, true
}
