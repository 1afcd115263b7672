// Package models holds the RBAC aggregates: roles, their permission lists,
// and role assignments.
package models

import (
	"strings"
	"time"

	"gatehouse/internal/audit"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	strutil "gatehouse/pkg/platform/strings"
)

const maxRoleNameLength = 64

// Role is a named bundle of permissions within one tenant.
//
// Invariants:
//   - Name is non-empty, at most 64 characters, unique per tenant
//   - Every permission is well-formed: a known action tag joined to a valid
//     resource type (e.g. delete_any_user)
//   - Permissions are deduplicated, order preserved
//   - Roles never cross tenants; assignments reference roles of the same
//     tenant only
type Role struct {
	ID          id.RoleID   `json:"id"`
	TenantID    id.TenantID `json:"tenant_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Permissions []string    `json:"permissions"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewRole constructs a Role, enforcing all invariants.
func NewRole(roleID id.RoleID, tenantID id.TenantID, name, description string, permissions []string, now time.Time) (*Role, error) {
	if roleID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role ID is required")
	}
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant ID is required")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role name is required")
	}
	if len(name) > maxRoleNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role name exceeds maximum length")
	}

	normalized, err := NormalizePermissions(permissions)
	if err != nil {
		return nil, err
	}

	return &Role{
		ID:          roleID,
		TenantID:    tenantID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Permissions: normalized,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyUpdate replaces the role's mutable fields after validating them.
func (r *Role) ApplyUpdate(name, description string, permissions []string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "role name is required")
	}
	if len(name) > maxRoleNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "role name exceeds maximum length")
	}

	normalized, err := NormalizePermissions(permissions)
	if err != nil {
		return err
	}

	r.Name = name
	r.Description = strings.TrimSpace(description)
	r.Permissions = normalized
	r.UpdatedAt = now
	return nil
}

// Snapshot captures the role's auditable fields for change-set diffing.
func (r *Role) Snapshot() audit.Snapshot {
	if r == nil {
		return nil
	}
	return audit.Snapshot{
		"name":        r.Name,
		"description": r.Description,
		"permissions": append([]string{}, r.Permissions...),
	}
}

// NormalizePermissions trims, deduplicates, and validates a permission list.
// Order of first occurrence is preserved.
func NormalizePermissions(permissions []string) ([]string, error) {
	normalized := strutil.DedupeAndTrimLower(permissions)
	for _, p := range normalized {
		if err := ValidatePermission(p); err != nil {
			return nil, err
		}
	}
	return normalized, nil
}

// ValidatePermission checks that a permission name is a known action tag
// joined to a valid resource type, e.g. "delete_any_user".
func ValidatePermission(permission string) error {
	for _, action := range id.Actions() {
		prefix := string(action) + "_"
		if !strings.HasPrefix(permission, prefix) {
			continue
		}
		rest := strings.TrimPrefix(permission, prefix)
		// Longer action tags shadow shorter ones (delete_any vs delete):
		// accept if any action/resource split parses.
		if _, err := id.ParseResourceType(rest); err == nil {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeValidation, "malformed permission: "+permission)
}

// Assignment links an actor to a role within a tenant.
type Assignment struct {
	TenantID  id.TenantID `json:"tenant_id"`
	ActorID   id.ActorID  `json:"actor_id"`
	RoleID    id.RoleID   `json:"role_id"`
	CreatedAt time.Time   `json:"created_at"`
}
