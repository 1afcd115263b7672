// Package handler exposes the admin-facing tenant management endpoints.
// Routes are mounted behind the admin token middleware; tenant callers never
// reach them.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatehouse/internal/tenant/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

// Service defines the interface for tenant management operations.
type Service interface {
	CreateTenant(ctx context.Context, name string) (*models.Tenant, string, error)
	GetTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	RotateAPIKey(ctx context.Context, tenantID id.TenantID) (string, error)
}

// Handler wires tenant management endpoints to the tenant service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a tenant handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tenant management endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/tenants", h.HandleCreateTenant)
	r.Get("/admin/tenants", h.HandleListTenants)
	r.Get("/admin/tenants/{tenantID}", h.HandleGetTenant)
	r.Post("/admin/tenants/{tenantID}/deactivate", h.HandleDeactivateTenant)
	r.Post("/admin/tenants/{tenantID}/reactivate", h.HandleReactivateTenant)
	r.Post("/admin/tenants/{tenantID}/rotate-key", h.HandleRotateAPIKey)
}

// HandleCreateTenant handles POST /admin/tenants requests.
func (h *Handler) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*CreateTenantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tenant, apiKey, err := h.service.CreateTenant(ctx, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tenant created",
		"request_id", requestID,
		"tenant_id", tenant.ID,
		"name", tenant.Name,
	)

	httputil.WriteJSON(w, http.StatusCreated, CreatedTenantResponse{
		TenantResponse: *FromTenant(tenant),
		APIKey:         apiKey,
	})
}

// HandleListTenants handles GET /admin/tenants requests.
func (h *Handler) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.service.ListTenants(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTenants(tenants))
}

// HandleGetTenant handles GET /admin/tenants/{tenantID} requests.
func (h *Handler) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.service.GetTenant(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTenant(tenant))
}

// HandleDeactivateTenant handles POST /admin/tenants/{tenantID}/deactivate requests.
func (h *Handler) HandleDeactivateTenant(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.DeactivateTenant, "tenant deactivated")
}

// HandleReactivateTenant handles POST /admin/tenants/{tenantID}/reactivate requests.
func (h *Handler) HandleReactivateTenant(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.ReactivateTenant, "tenant reactivated")
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.TenantID) (*models.Tenant, error), msg string) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := op(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenant.ID,
	)

	httputil.WriteJSON(w, http.StatusOK, FromTenant(tenant))
}

// HandleRotateAPIKey handles POST /admin/tenants/{tenantID}/rotate-key requests.
func (h *Handler) HandleRotateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	apiKey, err := h.service.RotateAPIKey(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "tenant api key rotated",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID,
	)

	httputil.WriteJSON(w, http.StatusOK, RotatedKeyResponse{APIKey: apiKey})
}
