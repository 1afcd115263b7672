package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
)

func TestNewTenant(t *testing.T) {
	now := time.Now()

	t.Run("constructs an active tenant", func(t *testing.T) {
		tenant, err := NewTenant(id.TenantID(uuid.New()), "Acme", "hash", now)
		require.NoError(t, err)
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.True(t, tenant.IsActive())
		assert.Equal(t, now, tenant.CreatedAt)
		assert.Equal(t, now, tenant.UpdatedAt)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTenant(id.TenantID(uuid.New()), "", "hash", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects overlong name", func(t *testing.T) {
		_, err := NewTenant(id.TenantID(uuid.New()), strings.Repeat("x", 129), "hash", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects missing key hash", func(t *testing.T) {
		_, err := NewTenant(id.TenantID(uuid.New()), "Acme", "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestStatusTransitions(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Minute)

	t.Run("active to inactive and back", func(t *testing.T) {
		tenant, err := NewTenant(id.TenantID(uuid.New()), "Acme", "hash", now)
		require.NoError(t, err)

		require.NoError(t, tenant.CanDeactivate())
		tenant.ApplyDeactivation(later)
		assert.Equal(t, TenantStatusInactive, tenant.Status)
		assert.False(t, tenant.IsActive())
		assert.Equal(t, later, tenant.UpdatedAt)

		require.NoError(t, tenant.CanReactivate())
		tenant.ApplyReactivation(later)
		assert.Equal(t, TenantStatusActive, tenant.Status)
	})

	t.Run("deactivating twice is an invariant violation", func(t *testing.T) {
		tenant, err := NewTenant(id.TenantID(uuid.New()), "Acme", "hash", now)
		require.NoError(t, err)
		tenant.ApplyDeactivation(later)

		err = tenant.CanDeactivate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("reactivating an active tenant is an invariant violation", func(t *testing.T) {
		tenant, err := NewTenant(id.TenantID(uuid.New()), "Acme", "hash", now)
		require.NoError(t, err)

		err = tenant.CanReactivate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestRotateAPIKey(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Minute)

	tenant, err := NewTenant(id.TenantID(uuid.New()), "Acme", "old-hash", now)
	require.NoError(t, err)

	require.NoError(t, tenant.RotateAPIKey("new-hash", later))
	assert.Equal(t, "new-hash", tenant.APIKeyHash)
	assert.Equal(t, later, tenant.UpdatedAt)

	err = tenant.RotateAPIKey("", later)
	require.Error(t, err)
	assert.Equal(t, "new-hash", tenant.APIKeyHash)
}

func TestStatusMachine(t *testing.T) {
	assert.True(t, TenantStatusActive.CanTransitionTo(TenantStatusInactive))
	assert.True(t, TenantStatusInactive.CanTransitionTo(TenantStatusActive))
	assert.False(t, TenantStatusActive.CanTransitionTo(TenantStatusActive))
	assert.False(t, TenantStatusInactive.CanTransitionTo(TenantStatusInactive))
	assert.False(t, TenantStatus("frozen").CanTransitionTo(TenantStatusActive))
	assert.False(t, TenantStatus("frozen").IsValid())
}
