package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/audit"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
)

type fakeResolver struct {
	mu          sync.Mutex
	permissions []string
	err         error
	calls       int
}

func (r *fakeResolver) EffectivePermissions(_ context.Context, _ id.TenantID, _ id.ActorID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls += 1
	return r.permissions, r.err
}

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (a *fakeAuditor) Emit(_ context.Context, event audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, event)
	return nil
}

func newTestService(resolver *fakeResolver, auditor *fakeAuditor) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if auditor == nil {
		return NewService(resolver, nil, nil, logger)
	}
	return NewService(resolver, auditor, nil, logger)
}

func TestService_Check(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())
	ownerID := id.ActorID(uuid.New())

	resource := &Resource{
		ID:       id.ResourceID(uuid.New()),
		OwnerID:  ownerID,
		TenantID: tenantID,
	}

	t.Run("granted with permission", func(t *testing.T) {
		resolver := &fakeResolver{permissions: []string{"update_user"}}
		svc := newTestService(resolver, nil)

		decision, err := svc.Check(context.Background(), CheckRequest{
			ActorID:      actorID,
			TenantID:     tenantID,
			Action:       id.ActionUpdate,
			ResourceType: "user",
			Resource:     resource,
		})

		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, ReasonGranted, decision.Reason)
	})

	t.Run("tenant mismatch denies before resolution", func(t *testing.T) {
		// Justification: cross-tenant denial must not depend on what the
		// other tenant's roles happen to grant.
		resolver := &fakeResolver{permissions: []string{"update_user"}}
		svc := newTestService(resolver, nil)

		foreign := &Resource{
			ID:       id.ResourceID(uuid.New()),
			OwnerID:  ownerID,
			TenantID: id.TenantID(uuid.New()),
		}

		decision, err := svc.Check(context.Background(), CheckRequest{
			ActorID:      actorID,
			TenantID:     tenantID,
			Action:       id.ActionUpdate,
			ResourceType: "user",
			Resource:     foreign,
		})

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonTenantMismatch, decision.Reason)
		assert.Zero(t, resolver.calls)
	})

	t.Run("resolver failure is internal", func(t *testing.T) {
		resolver := &fakeResolver{err: errors.New("redis down")}
		svc := newTestService(resolver, nil)

		_, err := svc.Check(context.Background(), CheckRequest{
			ActorID:      actorID,
			TenantID:     tenantID,
			Action:       id.ActionUpdate,
			ResourceType: "user",
			Resource:     resource,
		})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("missing actor is invalid input", func(t *testing.T) {
		svc := newTestService(&fakeResolver{}, nil)

		_, err := svc.Check(context.Background(), CheckRequest{
			TenantID:     tenantID,
			Action:       id.ActionView,
			ResourceType: "user",
			Resource:     resource,
		})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("self destructive action blocked through full stack", func(t *testing.T) {
		resolver := &fakeResolver{permissions: []string{"delete_user", "delete_any_user"}}
		svc := newTestService(resolver, nil)

		own := &Resource{
			ID:       id.ResourceID(uuid.New()),
			OwnerID:  actorID,
			TenantID: tenantID,
		}

		decision, err := svc.Check(context.Background(), CheckRequest{
			ActorID:      actorID,
			TenantID:     tenantID,
			Action:       id.ActionDelete,
			ResourceType: "user",
			Resource:     own,
		})

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonSelfActionBlocked, decision.Reason)
	})
}

func TestService_CheckAudits(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	t.Run("decision emits audit event", func(t *testing.T) {
		auditor := &fakeAuditor{}
		svc := newTestService(&fakeResolver{}, auditor)

		resourceID := id.ResourceID(uuid.New())
		decision, err := svc.Check(context.Background(), CheckRequest{
			ActorID:      actorID,
			TenantID:     tenantID,
			Action:       id.ActionDelete,
			ResourceType: "user",
			Resource: &Resource{
				ID:       resourceID,
				OwnerID:  id.ActorID(uuid.New()),
				TenantID: tenantID,
			},
		})

		require.NoError(t, err)
		assert.False(t, decision.Allowed)

		require.Len(t, auditor.events, 1)
		event := auditor.events[0]
		assert.Equal(t, string(audit.EventDecisionMade), event.Action)
		assert.Equal(t, "denied", event.Decision)
		assert.Equal(t, string(ReasonPermissionMissing), event.Reason)
		assert.Equal(t, "user", event.ResourceType)
		assert.Equal(t, resourceID.String(), event.ResourceID)
	})

	t.Run("audit failure does not fail the check", func(t *testing.T) {
		auditor := &fakeAuditor{err: errors.New("outbox full")}
		svc := newTestService(&fakeResolver{permissions: []string{"view_any_user"}}, auditor)

		decision, err := svc.Check(context.Background(), CheckRequest{
			ActorID:      actorID,
			TenantID:     tenantID,
			Action:       id.ActionViewAny,
			ResourceType: "user",
		})

		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("invalid invocation emits nothing", func(t *testing.T) {
		auditor := &fakeAuditor{}
		svc := newTestService(&fakeResolver{}, auditor)

		_, err := svc.Check(context.Background(), CheckRequest{
			ActorID:      actorID,
			TenantID:     tenantID,
			Action:       id.Action("frobnicate"),
			ResourceType: "user",
		})

		require.Error(t, err)
		assert.Empty(t, auditor.events)
	})
}

func TestService_CheckBatch(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	t.Run("preserves request order", func(t *testing.T) {
		resolver := &fakeResolver{permissions: []string{"view_any_user"}}
		svc := newTestService(resolver, nil)

		reqs := []CheckRequest{
			{ActorID: actorID, TenantID: tenantID, Action: id.ActionViewAny, ResourceType: "user"},
			{ActorID: actorID, TenantID: tenantID, Action: id.ActionDeleteAny, ResourceType: "user"},
			{ActorID: actorID, TenantID: tenantID, Action: id.ActionViewAny, ResourceType: "user"},
		}

		decisions, err := svc.CheckBatch(context.Background(), reqs)

		require.NoError(t, err)
		require.Len(t, decisions, 3)
		assert.True(t, decisions[0].Allowed)
		assert.False(t, decisions[1].Allowed)
		assert.True(t, decisions[2].Allowed)
	})

	t.Run("one invalid request fails the batch", func(t *testing.T) {
		svc := newTestService(&fakeResolver{}, nil)

		reqs := []CheckRequest{
			{ActorID: actorID, TenantID: tenantID, Action: id.ActionViewAny, ResourceType: "user"},
			{ActorID: actorID, TenantID: tenantID, Action: id.Action("bogus"), ResourceType: "user"},
		}

		_, err := svc.CheckBatch(context.Background(), reqs)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("empty batch is invalid input", func(t *testing.T) {
		svc := newTestService(&fakeResolver{}, nil)

		_, err := svc.CheckBatch(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
