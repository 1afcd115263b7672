package authz

import (
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
)

// Decide answers whether the actor may perform the action on the target.
// This is pure domain logic - no I/O, no side effects. The function receives
// all data it needs as arguments and is safe for unrestricted concurrent use.
//
// Rule priority (fail-fast):
//  1. Action validity - unknown tags are invalid invocations, never silent denials
//  2. Scope contract - instance-scoped actions require a resource
//  3. Self-action block - destructive actions on the actor's own resource,
//     independent of permission grants
//  4. Permission check - the derived permission must be in the actor's set
//
// Collection-scoped actions ignore resource entirely; the decision reduces to
// membership of the derived permission (e.g. delete_any_user).
func Decide(actor Actor, action id.Action, resourceType id.ResourceType, resource *Resource) (Decision, error) {
	if !action.IsValid() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "unknown action")
	}
	if resourceType == "" {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "resource type is required")
	}

	permission := action.Permission(resourceType)

	if action.Scope() == id.ScopeCollection {
		return permissionDecision(actor, permission), nil
	}

	if resource == nil {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "resource is required for instance-scoped action")
	}

	if action.Destructive() && resource.OwnerID == actor.ID {
		return Decision{
			Allowed:    false,
			Reason:     ReasonSelfActionBlocked,
			Permission: permission,
		}, nil
	}

	return permissionDecision(actor, permission), nil
}

func permissionDecision(actor Actor, permission string) Decision {
	if actor.Permissions.Has(permission) {
		return Decision{Allowed: true, Reason: ReasonGranted, Permission: permission}
	}
	return Decision{Allowed: false, Reason: ReasonPermissionMissing, Permission: permission}
}
