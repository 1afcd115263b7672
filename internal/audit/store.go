package audit

import (
	"context"

	id "gatehouse/pkg/domain"

	"github.com/google/uuid"
)

// Store persists audit events. The write path goes through the outbox in the
// postgres implementation; reads serve the query API from the materialized
// table.
type Store interface {
	// Append writes a new event. In the outbox implementation this enqueues
	// the event for publishing rather than writing the query table directly.
	Append(ctx context.Context, event Event) error

	// AppendWithID materializes an event under a fixed ID. Idempotent:
	// replaying the same ID is a no-op. Used by the Kafka consumer.
	AppendWithID(ctx context.Context, eventID uuid.UUID, event Event) error

	// ListByActor returns events performed by one actor within a tenant,
	// most recent first.
	ListByActor(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]Event, error)

	// ListByResource returns events touching one resource within a tenant,
	// most recent first.
	ListByResource(ctx context.Context, tenantID id.TenantID, resourceType, resourceID string) ([]Event, error)

	// ListRecent returns the most recent events within a tenant.
	ListRecent(ctx context.Context, tenantID id.TenantID, limit int) ([]Event, error)
}
