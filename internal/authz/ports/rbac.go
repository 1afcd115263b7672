package ports

import (
	"context"

	id "gatehouse/pkg/domain"
)

// PermissionResolver resolves the effective permission set for an actor.
// This matches the rbac service surface but is defined here to keep the
// authz module decoupled from rbac internals.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error)
}
