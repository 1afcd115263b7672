package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/audit"
	"gatehouse/internal/rbac/cache"
	rbacmemory "gatehouse/internal/rbac/store/memory"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/sentinel"
)

type fakeAuditor struct {
	events  []audit.Event
	changes []audit.Change
}

func (a *fakeAuditor) Emit(_ context.Context, event audit.Event) error {
	a.events = append(a.events, event)
	return nil
}

func (a *fakeAuditor) RecordChange(_ context.Context, change audit.Change) error {
	a.changes = append(a.changes, change)
	return nil
}

type fakeCache struct {
	entries       map[string][]string
	invalidations int
	getErr        error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]string)}
}

func cacheKey(tenantID id.TenantID, actorID id.ActorID) string {
	return tenantID.String() + "/" + actorID.String()
}

func (c *fakeCache) Get(_ context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if perms, ok := c.entries[cacheKey(tenantID, actorID)]; ok {
		return perms, nil
	}
	return nil, sentinel.ErrNotFound
}

func (c *fakeCache) Set(_ context.Context, tenantID id.TenantID, actorID id.ActorID, permissions []string) error {
	c.entries[cacheKey(tenantID, actorID)] = permissions
	return nil
}

func (c *fakeCache) InvalidateTenant(_ context.Context, _ id.TenantID) error {
	c.invalidations += 1
	c.entries = make(map[string][]string)
	return nil
}

type fixture struct {
	svc     *Service
	auditor *fakeAuditor
	cache   *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := rbacmemory.New()
	auditor := &fakeAuditor{}
	cache := newFakeCache()
	svc := New(store, store, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithAuditRecorder(auditor),
		WithCache(cache),
	)
	return &fixture{svc: svc, auditor: auditor, cache: cache}
}

func TestCreateRole(t *testing.T) {
	tenantID := id.TenantID(uuid.New())

	t.Run("creates and audits", func(t *testing.T) {
		f := newFixture(t)

		role, err := f.svc.CreateRole(context.Background(), tenantID, "editor", "content editors", []string{"view_user", "update_user"})

		require.NoError(t, err)
		assert.False(t, role.ID.IsNil())
		assert.Equal(t, []string{"view_user", "update_user"}, role.Permissions)

		require.Len(t, f.auditor.events, 1)
		assert.Equal(t, string(audit.EventRoleCreated), f.auditor.events[0].Action)
		assert.Equal(t, ResourceTypeRole, f.auditor.events[0].ResourceType)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateRole(context.Background(), tenantID, "editor", "", []string{"view_user"})
		require.NoError(t, err)

		_, err = f.svc.CreateRole(context.Background(), tenantID, "editor", "", []string{"view_user"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("same name in another tenant is fine", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateRole(context.Background(), tenantID, "editor", "", []string{"view_user"})
		require.NoError(t, err)

		_, err = f.svc.CreateRole(context.Background(), id.TenantID(uuid.New()), "editor", "", []string{"view_user"})
		assert.NoError(t, err)
	})

	t.Run("invalid name is a validation error", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateRole(context.Background(), tenantID, "  ", "", nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("malformed permission is a validation error", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CreateRole(context.Background(), tenantID, "editor", "", []string{"launch_missiles"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestUpdateRole(t *testing.T) {
	tenantID := id.TenantID(uuid.New())

	t.Run("updates, invalidates, and records change set", func(t *testing.T) {
		f := newFixture(t)

		role, err := f.svc.CreateRole(context.Background(), tenantID, "editor", "", []string{"view_user"})
		require.NoError(t, err)

		updated, err := f.svc.UpdateRole(context.Background(), tenantID, role.ID, "auditor", "read-only", []string{"view_any_user"})
		require.NoError(t, err)
		assert.Equal(t, "auditor", updated.Name)

		assert.Equal(t, 1, f.cache.invalidations)

		require.Len(t, f.auditor.changes, 1)
		change := f.auditor.changes[0]
		assert.Equal(t, audit.EventRoleUpdated, change.Action)
		assert.Equal(t, "editor", change.Before["name"])
		assert.Equal(t, "auditor", change.After["name"])
	})

	t.Run("unknown role not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.UpdateRole(context.Background(), tenantID, id.RoleID(uuid.New()), "x", "", []string{"view_user"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("role from another tenant not found", func(t *testing.T) {
		f := newFixture(t)

		role, err := f.svc.CreateRole(context.Background(), tenantID, "editor", "", []string{"view_user"})
		require.NoError(t, err)

		_, err = f.svc.UpdateRole(context.Background(), id.TenantID(uuid.New()), role.ID, "x", "", []string{"view_user"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestAssignAndResolve(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	t.Run("assignment changes effective permissions", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		editor, err := f.svc.CreateRole(ctx, tenantID, "editor", "", []string{"view_user", "update_user"})
		require.NoError(t, err)
		auditor, err := f.svc.CreateRole(ctx, tenantID, "auditor", "", []string{"view_any_user", "view_user"})
		require.NoError(t, err)

		perms, err := f.svc.EffectivePermissions(ctx, tenantID, actorID)
		require.NoError(t, err)
		assert.Empty(t, perms)

		require.NoError(t, f.svc.AssignRole(ctx, tenantID, actorID, editor.ID))
		require.NoError(t, f.svc.AssignRole(ctx, tenantID, actorID, auditor.ID))

		perms, err = f.svc.EffectivePermissions(ctx, tenantID, actorID)
		require.NoError(t, err)
		// Union across roles, no duplicates.
		assert.ElementsMatch(t, []string{"view_user", "update_user", "view_any_user"}, perms)
	})

	t.Run("revoke removes the role's permissions", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		editor, err := f.svc.CreateRole(ctx, tenantID, "editor", "", []string{"update_user"})
		require.NoError(t, err)
		require.NoError(t, f.svc.AssignRole(ctx, tenantID, actorID, editor.ID))
		require.NoError(t, f.svc.RevokeRole(ctx, tenantID, actorID, editor.ID))

		perms, err := f.svc.EffectivePermissions(ctx, tenantID, actorID)
		require.NoError(t, err)
		assert.Empty(t, perms)
	})

	t.Run("duplicate assignment conflicts", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		editor, err := f.svc.CreateRole(ctx, tenantID, "editor", "", []string{"update_user"})
		require.NoError(t, err)
		require.NoError(t, f.svc.AssignRole(ctx, tenantID, actorID, editor.ID))

		err = f.svc.AssignRole(ctx, tenantID, actorID, editor.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("assignment audited with subject", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		editor, err := f.svc.CreateRole(ctx, tenantID, "editor", "", []string{"update_user"})
		require.NoError(t, err)
		require.NoError(t, f.svc.AssignRole(ctx, tenantID, actorID, editor.ID))

		last := f.auditor.events[len(f.auditor.events)-1]
		assert.Equal(t, string(audit.EventRoleAssigned), last.Action)
		assert.Equal(t, actorID.String(), last.Subject)
	})
}

func TestEffectivePermissions_Cache(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	t.Run("second resolution is served from cache", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		editor, err := f.svc.CreateRole(ctx, tenantID, "editor", "", []string{"update_user"})
		require.NoError(t, err)
		require.NoError(t, f.svc.AssignRole(ctx, tenantID, actorID, editor.ID))

		first, err := f.svc.EffectivePermissions(ctx, tenantID, actorID)
		require.NoError(t, err)

		// Cached now; a hit returns the same set.
		cached, err := f.svc.EffectivePermissions(ctx, tenantID, actorID)
		require.NoError(t, err)
		assert.Equal(t, first, cached)
		assert.Contains(t, f.cache.entries, cacheKey(tenantID, actorID))
	})

	t.Run("cache failure falls back to the store", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.cache.getErr = errors.New("redis down")

		editor, err := f.svc.CreateRole(ctx, tenantID, "editor", "", []string{"update_user"})
		require.NoError(t, err)
		require.NoError(t, f.svc.AssignRole(ctx, tenantID, actorID, editor.ID))

		perms, err := f.svc.EffectivePermissions(ctx, tenantID, actorID)
		require.NoError(t, err)
		assert.Equal(t, []string{"update_user"}, perms)
	})

	t.Run("nil identifiers are invalid input", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.EffectivePermissions(context.Background(), id.TenantID{}, actorID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = f.svc.EffectivePermissions(context.Background(), tenantID, id.ActorID{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestDeleteRole(t *testing.T) {
	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())

	t.Run("delete cascades to assignments", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		editor, err := f.svc.CreateRole(ctx, tenantID, "editor", "", []string{"update_user"})
		require.NoError(t, err)
		require.NoError(t, f.svc.AssignRole(ctx, tenantID, actorID, editor.ID))

		require.NoError(t, f.svc.DeleteRole(ctx, tenantID, editor.ID))

		perms, err := f.svc.EffectivePermissions(ctx, tenantID, actorID)
		require.NoError(t, err)
		assert.Empty(t, perms)

		_, err = f.svc.GetRole(ctx, tenantID, editor.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestEffectivePermissions_NoRedisConfigured wires the service the way the
// server does when no Redis URL is set: the cache constructor yields nil and
// the cache option must be skipped, otherwise the PermissionCache interface
// holds a typed nil pointer and the first resolution panics.
func TestEffectivePermissions_NoRedisConfigured(t *testing.T) {
	store := rbacmemory.New()
	opts := []Option{WithAuditRecorder(&fakeAuditor{})}
	if permCache := cache.New(nil, 0); permCache != nil {
		opts = append(opts, WithCache(permCache))
	}
	svc := New(store, store, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)

	tenantID := id.TenantID(uuid.New())
	actorID := id.ActorID(uuid.New())
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, tenantID, "editor", "", []string{"view_user"})
	require.NoError(t, err)
	require.NoError(t, svc.AssignRole(ctx, tenantID, actorID, role.ID))

	require.NotPanics(t, func() {
		perms, err := svc.EffectivePermissions(ctx, tenantID, actorID)
		require.NoError(t, err)
		assert.Equal(t, []string{"view_user"}, perms)
	})
}
