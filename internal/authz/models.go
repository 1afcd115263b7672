// Package authz contains the authorization gate: the pure decision core that
// answers whether an actor may perform an action on a resource, and the
// service shell that resolves permissions, enforces tenancy, and audits the
// outcome.
package authz

import (
	id "gatehouse/pkg/domain"
)

// Actor is the identity requesting an action. Immutable for the duration of a
// single decision; the permission set is resolved once, before the gate runs.
type Actor struct {
	ID          id.ActorID
	TenantID    id.TenantID
	Permissions PermissionSet
}

// PermissionSet is the set of permission names granted to an actor.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from permission names.
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the permission.
func (s PermissionSet) Has(permission string) bool {
	_, ok := s[permission]
	return ok
}

// Resource is the entity instance targeted by an instance-scoped action.
// The resource type travels separately so collection-scoped checks work
// without an instance.
type Resource struct {
	ID       id.ResourceID
	OwnerID  id.ActorID
	TenantID id.TenantID
}

// Reason explains a decision outcome.
type Reason string

const (
	// ReasonGranted marks allowed decisions.
	ReasonGranted Reason = "granted"

	// ReasonPermissionMissing marks denials where the actor lacks the
	// derived permission.
	ReasonPermissionMissing Reason = "permission_missing"

	// ReasonSelfActionBlocked marks denials of destructive actions targeting
	// the actor's own resource. Overrides permission grants.
	ReasonSelfActionBlocked Reason = "self_action_blocked"

	// ReasonTenantMismatch marks denials of cross-tenant instance access.
	// Enforced by the service before permission resolution.
	ReasonTenantMismatch Reason = "tenant_mismatch"
)

// Decision is the outcome of an authorization check. Denials are normal
// results, not errors; only invalid invocations produce errors.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Permission is the derived permission name the decision hinged on.
	// Empty for denials decided before permission derivation.
	Permission string
}
