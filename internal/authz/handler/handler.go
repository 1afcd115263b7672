package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatehouse/internal/authz"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mock_service.go -package=mocks

// Service defines the interface for authorization operations.
type Service interface {
	Check(ctx context.Context, req authz.CheckRequest) (authz.Decision, error)
	CheckBatch(ctx context.Context, reqs []authz.CheckRequest) ([]authz.Decision, error)
}

// Handler wires authorization endpoints to the authz service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an authz handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts authorization endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/authz/check", h.HandleCheck)
	r.Post("/authz/check-batch", h.HandleCheckBatch)
}

// HandleCheck handles POST /authz/check requests.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actorID, tenantID, ok := h.requireIdentity(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[*CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.Check(ctx, req.Domain(actorID, tenantID))
	if err != nil {
		h.logger.ErrorContext(ctx, "authorization check failed",
			"request_id", requestID,
			"actor_id", actorID,
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "authorization checked",
		"request_id", requestID,
		"actor_id", actorID,
		"action", req.Action,
		"allowed", decision.Allowed,
		"reason", decision.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromDecision(decision))
}

// HandleCheckBatch handles POST /authz/check-batch requests.
func (h *Handler) HandleCheckBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID, tenantID, ok := h.requireIdentity(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[*CheckBatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decisions, err := h.service.CheckBatch(ctx, req.Domain(actorID, tenantID))
	if err != nil {
		h.logger.ErrorContext(ctx, "batch authorization check failed",
			"request_id", requestID,
			"actor_id", actorID,
			"checks", len(req.Checks),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromDecisions(decisions))
}

func (h *Handler) requireIdentity(w http.ResponseWriter, ctx context.Context) (id.ActorID, id.TenantID, bool) {
	actorID := requestcontext.ActorID(ctx)
	tenantID := requestcontext.TenantID(ctx)
	if actorID.IsNil() || tenantID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.ActorID{}, id.TenantID{}, false
	}
	return actorID, tenantID, true
}
