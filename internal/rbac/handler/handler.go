package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatehouse/internal/rbac/models"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

// Service defines the interface for role management operations.
type Service interface {
	CreateRole(ctx context.Context, tenantID id.TenantID, name, description string, permissions []string) (*models.Role, error)
	GetRole(ctx context.Context, tenantID id.TenantID, roleID id.RoleID) (*models.Role, error)
	ListRoles(ctx context.Context, tenantID id.TenantID) ([]*models.Role, error)
	UpdateRole(ctx context.Context, tenantID id.TenantID, roleID id.RoleID, name, description string, permissions []string) (*models.Role, error)
	DeleteRole(ctx context.Context, tenantID id.TenantID, roleID id.RoleID) error
	AssignRole(ctx context.Context, tenantID id.TenantID, actorID id.ActorID, roleID id.RoleID) error
	RevokeRole(ctx context.Context, tenantID id.TenantID, actorID id.ActorID, roleID id.RoleID) error
	EffectivePermissions(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error)
}

// Handler wires role management endpoints to the rbac service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an rbac handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts role management endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/rbac/roles", h.HandleCreateRole)
	r.Get("/rbac/roles", h.HandleListRoles)
	r.Get("/rbac/roles/{roleID}", h.HandleGetRole)
	r.Put("/rbac/roles/{roleID}", h.HandleUpdateRole)
	r.Delete("/rbac/roles/{roleID}", h.HandleDeleteRole)

	r.Post("/rbac/actors/{actorID}/roles/{roleID}", h.HandleAssignRole)
	r.Delete("/rbac/actors/{actorID}/roles/{roleID}", h.HandleRevokeRole)
	r.Get("/rbac/actors/{actorID}/permissions", h.HandleActorPermissions)
}

// HandleCreateRole handles POST /rbac/roles requests.
func (h *Handler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[*RoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	role, err := h.service.CreateRole(ctx, tenantID, req.Name, req.Description, req.Permissions)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "role created",
		"request_id", requestID,
		"tenant_id", tenantID,
		"role_id", role.ID,
		"name", role.Name,
	)

	httputil.WriteJSON(w, http.StatusCreated, FromRole(role))
}

// HandleListRoles handles GET /rbac/roles requests.
func (h *Handler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	roles, err := h.service.ListRoles(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRoles(roles))
}

// HandleGetRole handles GET /rbac/roles/{roleID} requests.
func (h *Handler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	roleID, err := id.ParseRoleID(chi.URLParam(r, "roleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	role, err := h.service.GetRole(ctx, tenantID, roleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRole(role))
}

// HandleUpdateRole handles PUT /rbac/roles/{roleID} requests.
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	roleID, err := id.ParseRoleID(chi.URLParam(r, "roleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[*RoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	role, err := h.service.UpdateRole(ctx, tenantID, roleID, req.Name, req.Description, req.Permissions)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRole(role))
}

// HandleDeleteRole handles DELETE /rbac/roles/{roleID} requests.
func (h *Handler) HandleDeleteRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	roleID, err := id.ParseRoleID(chi.URLParam(r, "roleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteRole(ctx, tenantID, roleID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignRole handles POST /rbac/actors/{actorID}/roles/{roleID} requests.
func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	h.handleAssignment(w, r, h.service.AssignRole, http.StatusCreated)
}

// HandleRevokeRole handles DELETE /rbac/actors/{actorID}/roles/{roleID} requests.
func (h *Handler) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.handleAssignment(w, r, h.service.RevokeRole, http.StatusNoContent)
}

func (h *Handler) handleAssignment(w http.ResponseWriter, r *http.Request, op func(context.Context, id.TenantID, id.ActorID, id.RoleID) error, status int) {
	ctx := r.Context()

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	actorID, err := id.ParseActorID(chi.URLParam(r, "actorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	roleID, err := id.ParseRoleID(chi.URLParam(r, "roleID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := op(ctx, tenantID, actorID, roleID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(status)
}

// HandleActorPermissions handles GET /rbac/actors/{actorID}/permissions requests.
func (h *Handler) HandleActorPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := h.requireTenant(w, ctx)
	if !ok {
		return
	}

	actorID, err := id.ParseActorID(chi.URLParam(r, "actorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	permissions, err := h.service.EffectivePermissions(ctx, tenantID, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: permissions})
}

func (h *Handler) requireTenant(w http.ResponseWriter, ctx context.Context) (id.TenantID, bool) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.TenantID{}, false
	}
	return tenantID, true
}
