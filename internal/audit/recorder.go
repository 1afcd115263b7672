package audit

import (
	"context"
	"log/slog"

	"gatehouse/internal/audit/metrics"
	id "gatehouse/pkg/domain"
	domainerrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/requestcontext"

	"github.com/google/uuid"
)

// Recorder is the single entry point for writing audit events. It stamps
// identity, time, and request forensics from context, applies the log policy
// for mutation events, and hands the result to the store.
type Recorder struct {
	store    Store
	policies *PolicyRegistry
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewRecorder creates a Recorder. The policy registry may be empty; events
// for unregistered resource types are recorded without change sets.
func NewRecorder(store Store, policies *PolicyRegistry, m *metrics.Metrics, logger *slog.Logger) *Recorder {
	if policies == nil {
		policies = NewPolicyRegistry()
	}
	return &Recorder{
		store:    store,
		policies: policies,
		metrics:  m,
		logger:   logger,
	}
}

// Emit records a single audit event. Category, ID, timestamp, and request
// forensics are filled in when the caller left them zero.
func (r *Recorder) Emit(ctx context.Context, event Event) error {
	if event.Action == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "audit event action is required")
	}
	if event.TenantID.IsNil() {
		return domainerrors.New(domainerrors.CodeInvalidInput, "audit event tenant is required")
	}

	r.enrich(ctx, &event)

	if err := r.store.Append(ctx, event); err != nil {
		r.logger.Error("failed to append audit event",
			"action", event.Action,
			"tenant_id", event.TenantID,
			"request_id", event.RequestID,
			"error", err,
		)
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "append audit event")
	}

	r.metrics.IncrementRecorded(event.Action, string(event.Category))
	return nil
}

// Change describes one entity mutation to be audited. Before and After are
// full snapshots; the recorder reduces them to the allow-listed diff.
type Change struct {
	TenantID     id.TenantID
	ActorID      id.ActorID
	Action       AuditAction
	ResourceType string
	ResourceID   string
	Before       Snapshot
	After        Snapshot
}

// RecordChange diffs the snapshots under the resource type's policy and
// records the result. A no-op update under a suppress-empty policy records
// nothing and returns nil. Mutations of resource types without a registered
// policy are recorded without a change set: the fact of the mutation is
// never silently lost, but no field values leak past an absent allow-list.
func (r *Recorder) RecordChange(ctx context.Context, change Change) error {
	if change.ResourceType == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "change resource type is required")
	}

	action := change.Action
	if action == "" {
		action = EventResourceChanged
	}

	event := Event{
		TenantID:     change.TenantID,
		ActorID:      change.ActorID,
		Action:       string(action),
		ResourceType: change.ResourceType,
		ResourceID:   change.ResourceID,
	}

	if policy, ok := r.policies.Lookup(change.ResourceType); ok {
		changes, record := policy.Apply(change.Before, change.After)
		if !record {
			r.metrics.IncrementSuppressed()
			r.logger.Debug("suppressed no-op change",
				"resource_type", change.ResourceType,
				"resource_id", change.ResourceID,
			)
			return nil
		}
		event.Changes = changes
	}

	return r.Emit(ctx, event)
}

// ListByActor returns events performed by one actor within a tenant.
func (r *Recorder) ListByActor(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]Event, error) {
	if tenantID.IsNil() {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "tenant is required")
	}
	if actorID.IsNil() {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "actor is required")
	}
	return r.store.ListByActor(ctx, tenantID, actorID)
}

// ListByResource returns events touching one resource within a tenant.
func (r *Recorder) ListByResource(ctx context.Context, tenantID id.TenantID, resourceType, resourceID string) ([]Event, error) {
	if tenantID.IsNil() {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "tenant is required")
	}
	if resourceType == "" || resourceID == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "resource type and id are required")
	}
	return r.store.ListByResource(ctx, tenantID, resourceType, resourceID)
}

// ListRecent returns the most recent events within a tenant.
func (r *Recorder) ListRecent(ctx context.Context, tenantID id.TenantID, limit int) ([]Event, error) {
	if tenantID.IsNil() {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "tenant is required")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return r.store.ListRecent(ctx, tenantID, limit)
}

func (r *Recorder) enrich(ctx context.Context, event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Category == "" {
		event.Category = AuditAction(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.ActorID.IsNil() {
		event.ActorID = requestcontext.ActorID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}
}
