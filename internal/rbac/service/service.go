// Package service orchestrates role management, assignment, and effective
// permission resolution for the authorization gate.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"gatehouse/internal/audit"
	"gatehouse/internal/rbac/metrics"
	"gatehouse/internal/rbac/models"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/sentinel"
	"gatehouse/pkg/requestcontext"
)

// ResourceTypeRole is the resource type tag under which role mutations are
// audited and authorized.
const ResourceTypeRole = "role"

type RoleStore interface {
	Create(ctx context.Context, role *models.Role) error
	FindByID(ctx context.Context, tenantID id.TenantID, roleID id.RoleID) (*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, tenantID id.TenantID, roleID id.RoleID) error
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Role, error)
}

type AssignmentStore interface {
	Assign(ctx context.Context, assignment models.Assignment) error
	Revoke(ctx context.Context, tenantID id.TenantID, actorID id.ActorID, roleID id.RoleID) error
	ListActorPermissions(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error)
}

// PermissionCache fronts the assignment store for resolution. May be nil.
type PermissionCache interface {
	Get(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error)
	Set(ctx context.Context, tenantID id.TenantID, actorID id.ActorID, permissions []string) error
	InvalidateTenant(ctx context.Context, tenantID id.TenantID) error
}

type AuditRecorder interface {
	Emit(ctx context.Context, event audit.Event) error
	RecordChange(ctx context.Context, change audit.Change) error
}

// Service orchestrates role and assignment management.
type Service struct {
	roles       RoleStore
	assignments AssignmentStore
	cache       PermissionCache
	auditor     AuditRecorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

type Option func(s *Service)

func WithCache(cache PermissionCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithAuditRecorder(auditor AuditRecorder) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(roles RoleStore, assignments AssignmentStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{roles: roles, assignments: assignments, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRole creates a role within a tenant.
func (s *Service) CreateRole(ctx context.Context, tenantID id.TenantID, name, description string, permissions []string) (*models.Role, error) {
	role, err := models.NewRole(id.RoleID(uuid.New()), tenantID, name, description, permissions, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "role name must be unique within the tenant")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create role")
	}

	s.emitRoleEvent(ctx, audit.EventRoleCreated, role)
	s.metrics.IncrementOperation("role_created")
	return role, nil
}

// GetRole loads one role.
func (s *Service) GetRole(ctx context.Context, tenantID id.TenantID, roleID id.RoleID) (*models.Role, error) {
	role, err := s.roles.FindByID(ctx, tenantID, roleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "role not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load role")
	}
	return role, nil
}

// ListRoles lists a tenant's roles.
func (s *Service) ListRoles(ctx context.Context, tenantID id.TenantID) ([]*models.Role, error) {
	roles, err := s.roles.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list roles")
	}
	return roles, nil
}

// UpdateRole replaces a role's name, description, and permission list. The
// mutation is audited as a field-level change set.
func (s *Service) UpdateRole(ctx context.Context, tenantID id.TenantID, roleID id.RoleID, name, description string, permissions []string) (*models.Role, error) {
	role, err := s.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return nil, err
	}

	before := role.Snapshot()

	if err := role.ApplyUpdate(name, description, permissions, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.roles.Update(ctx, role); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "role name must be unique within the tenant")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update role")
	}

	s.invalidate(ctx, tenantID)
	s.recordRoleChange(ctx, role, before, role.Snapshot())
	s.metrics.IncrementOperation("role_updated")
	return role, nil
}

// DeleteRole removes a role and, through the store, its assignments.
func (s *Service) DeleteRole(ctx context.Context, tenantID id.TenantID, roleID id.RoleID) error {
	role, err := s.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}

	if err := s.roles.Delete(ctx, tenantID, roleID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "role not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete role")
	}

	s.invalidate(ctx, tenantID)
	s.emitRoleEvent(ctx, audit.EventRoleDeleted, role)
	s.metrics.IncrementOperation("role_deleted")
	return nil
}

// AssignRole grants a role to an actor.
func (s *Service) AssignRole(ctx context.Context, tenantID id.TenantID, actorID id.ActorID, roleID id.RoleID) error {
	// The role must exist in this tenant; assignments never cross tenants.
	role, err := s.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}

	assignment := models.Assignment{
		TenantID:  tenantID,
		ActorID:   actorID,
		RoleID:    roleID,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.assignments.Assign(ctx, assignment); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "role already assigned")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "assign role")
	}

	s.invalidate(ctx, tenantID)
	s.emitAssignmentEvent(ctx, audit.EventRoleAssigned, role, actorID)
	s.metrics.IncrementOperation("role_assigned")
	return nil
}

// RevokeRole removes a role from an actor.
func (s *Service) RevokeRole(ctx context.Context, tenantID id.TenantID, actorID id.ActorID, roleID id.RoleID) error {
	role, err := s.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return err
	}

	if err := s.assignments.Revoke(ctx, tenantID, actorID, roleID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "assignment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoke role")
	}

	s.invalidate(ctx, tenantID)
	s.emitAssignmentEvent(ctx, audit.EventRoleRevoked, role, actorID)
	s.metrics.IncrementOperation("role_revoked")
	return nil
}

// EffectivePermissions resolves the union of permissions across all roles
// assigned to the actor. Satisfies the authz resolver port.
func (s *Service) EffectivePermissions(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant is required")
	}
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}

	if s.cache != nil {
		permissions, err := s.cache.Get(ctx, tenantID, actorID)
		switch {
		case err == nil:
			s.metrics.IncrementCacheLookup("hit")
			return permissions, nil
		case errors.Is(err, sentinel.ErrNotFound):
			s.metrics.IncrementCacheLookup("miss")
		default:
			// Cache trouble must not take authorization down.
			s.metrics.IncrementCacheLookup("error")
			s.logger.WarnContext(ctx, "permission cache read failed",
				"tenant_id", tenantID,
				"actor_id", actorID,
				"error", err,
			)
		}
	} else {
		s.metrics.IncrementCacheLookup("bypass")
	}

	permissions, err := s.assignments.ListActorPermissions(ctx, tenantID, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve permissions")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenantID, actorID, permissions); err != nil {
			s.logger.WarnContext(ctx, "permission cache write failed",
				"tenant_id", tenantID,
				"actor_id", actorID,
				"error", err,
			)
		}
	}

	return permissions, nil
}

func (s *Service) invalidate(ctx context.Context, tenantID id.TenantID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTenant(ctx, tenantID); err != nil {
		s.logger.ErrorContext(ctx, "permission cache invalidation failed",
			"tenant_id", tenantID,
			"error", err,
		)
	}
}

func (s *Service) emitRoleEvent(ctx context.Context, action audit.AuditAction, role *models.Role) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		TenantID:     role.TenantID,
		Action:       string(action),
		ResourceType: ResourceTypeRole,
		ResourceID:   role.ID.String(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to audit role event",
			"action", action,
			"role_id", role.ID,
			"error", err,
		)
	}
}

func (s *Service) emitAssignmentEvent(ctx context.Context, action audit.AuditAction, role *models.Role, actorID id.ActorID) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		TenantID:     role.TenantID,
		Action:       string(action),
		ResourceType: ResourceTypeRole,
		ResourceID:   role.ID.String(),
		Subject:      actorID.String(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to audit assignment event",
			"action", action,
			"role_id", role.ID,
			"actor_id", actorID,
			"error", err,
		)
	}
}

func (s *Service) recordRoleChange(ctx context.Context, role *models.Role, before, after audit.Snapshot) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.RecordChange(ctx, audit.Change{
		TenantID:     role.TenantID,
		Action:       audit.EventRoleUpdated,
		ResourceType: ResourceTypeRole,
		ResourceID:   role.ID.String(),
		Before:       before,
		After:        after,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to audit role change",
			"role_id", role.ID,
			"error", err,
		)
	}
}
