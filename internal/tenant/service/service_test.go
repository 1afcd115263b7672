package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/audit"
	tenantstore "gatehouse/internal/tenant/store/tenant"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
)

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeAuditor) Emit(_ context.Context, event audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditor) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

func newFixture(t *testing.T) (*Service, *fakeAuditor) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := &fakeAuditor{}
	svc := New(tenantstore.NewInMemory(), logger, WithAuditRecorder(auditor))
	return svc, auditor
}

func TestCreateTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the plaintext key exactly once", func(t *testing.T) {
		svc, auditor := newFixture(t)

		tenant, apiKey, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme", tenant.Name)
		assert.True(t, tenant.IsActive())
		assert.NotEmpty(t, apiKey)
		assert.NotEqual(t, apiKey, tenant.APIKeyHash)

		// The key just handed out verifies against the stored hash.
		require.NoError(t, svc.VerifyAPIKey(ctx, tenant.ID, apiKey))

		assert.Equal(t, []string{string(audit.EventTenantCreated)}, auditor.actions())
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		svc, _ := newFixture(t)
		_, _, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)

		_, _, err = svc.CreateTenant(ctx, "acme")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("empty name fails validation", func(t *testing.T) {
		svc, _ := newFixture(t)
		_, _, err := svc.CreateTenant(ctx, "   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestStatusLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivate then reactivate", func(t *testing.T) {
		svc, auditor := newFixture(t)
		tenant, _, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)

		deactivated, err := svc.DeactivateTenant(ctx, tenant.ID)
		require.NoError(t, err)
		assert.False(t, deactivated.IsActive())

		reactivated, err := svc.ReactivateTenant(ctx, tenant.ID)
		require.NoError(t, err)
		assert.True(t, reactivated.IsActive())

		assert.Equal(t, []string{
			string(audit.EventTenantCreated),
			string(audit.EventTenantDeactivated),
			string(audit.EventTenantReactivated),
		}, auditor.actions())
	})

	t.Run("double deactivation conflicts", func(t *testing.T) {
		svc, _ := newFixture(t)
		tenant, _, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)

		_, err = svc.DeactivateTenant(ctx, tenant.ID)
		require.NoError(t, err)

		_, err = svc.DeactivateTenant(ctx, tenant.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("reactivating an active tenant conflicts", func(t *testing.T) {
		svc, _ := newFixture(t)
		tenant, _, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)

		_, err = svc.ReactivateTenant(ctx, tenant.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("unknown tenant is not found", func(t *testing.T) {
		svc, _ := newFixture(t)
		_, err := svc.DeactivateTenant(ctx, id.TenantID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestRotateAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("old key stops verifying immediately", func(t *testing.T) {
		svc, auditor := newFixture(t)
		tenant, oldKey, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)

		newKey, err := svc.RotateAPIKey(ctx, tenant.ID)
		require.NoError(t, err)
		assert.NotEqual(t, oldKey, newKey)

		require.NoError(t, svc.VerifyAPIKey(ctx, tenant.ID, newKey))

		err = svc.VerifyAPIKey(ctx, tenant.ID, oldKey)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		assert.Contains(t, auditor.actions(), string(audit.EventAPIKeyRotated))
	})

	t.Run("unknown tenant is not found", func(t *testing.T) {
		svc, _ := newFixture(t)
		_, err := svc.RotateAPIKey(ctx, id.TenantID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestVerifyAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive tenant fails with the correct key", func(t *testing.T) {
		// Justification: deactivation is an immediate security boundary. The
		// stored hash still matches, but verification must be refused at the
		// single enforcement point.
		svc, _ := newFixture(t)
		tenant, apiKey, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)

		_, err = svc.DeactivateTenant(ctx, tenant.ID)
		require.NoError(t, err)

		err = svc.VerifyAPIKey(ctx, tenant.ID, apiKey)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unknown tenant reads as invalid key", func(t *testing.T) {
		svc, _ := newFixture(t)
		err := svc.VerifyAPIKey(ctx, id.TenantID(uuid.New()), "some-key")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("empty key is unauthorized", func(t *testing.T) {
		svc, _ := newFixture(t)
		tenant, _, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)

		err = svc.VerifyAPIKey(ctx, tenant.ID, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestCheckTenantActive(t *testing.T) {
	ctx := context.Background()

	t.Run("active tenant passes", func(t *testing.T) {
		svc, _ := newFixture(t)
		tenant, _, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)

		require.NoError(t, svc.CheckTenantActive(ctx, tenant.ID))
	})

	t.Run("deactivated tenant is forbidden", func(t *testing.T) {
		svc, _ := newFixture(t)
		tenant, _, err := svc.CreateTenant(ctx, "Acme")
		require.NoError(t, err)
		_, err = svc.DeactivateTenant(ctx, tenant.ID)
		require.NoError(t, err)

		err = svc.CheckTenantActive(ctx, tenant.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown tenant is not found", func(t *testing.T) {
		svc, _ := newFixture(t)
		err := svc.CheckTenantActive(ctx, id.TenantID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t)

	created, _, err := svc.CreateTenant(ctx, "Acme")
	require.NoError(t, err)

	t.Run("by id", func(t *testing.T) {
		tenant, err := svc.GetTenant(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, tenant.ID)
	})

	t.Run("by name is case-insensitive", func(t *testing.T) {
		tenant, err := svc.GetTenantByName(ctx, "ACME")
		require.NoError(t, err)
		assert.Equal(t, created.ID, tenant.ID)
	})

	t.Run("list", func(t *testing.T) {
		tenants, err := svc.ListTenants(ctx)
		require.NoError(t, err)
		assert.Len(t, tenants, 1)
	})

	t.Run("nil id is invalid", func(t *testing.T) {
		_, err := svc.GetTenant(ctx, id.TenantID{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
