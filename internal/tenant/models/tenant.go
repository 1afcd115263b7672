package models

import (
	"time"

	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
)

const maxTenantNameLength = 128

// Tenant is the aggregate root for a tenant organization.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status is either active or inactive
//   - Status transitions: active <-> inactive only (no other states)
//   - CreatedAt is immutable after construction
//
// Deactivating a tenant is an immediate security boundary: authenticated
// callers of an inactive tenant are rejected at the middleware layer and its
// API key stops verifying, without touching role or assignment records. The
// tenant's grants and audit history survive deactivation intact, so
// reactivation restores the previous state without any rebuild.
type Tenant struct {
	ID         id.TenantID  `json:"id"`
	Name       string       `json:"name"`
	Status     TenantStatus `json:"status"`
	APIKeyHash string       `json:"-"` // bcrypt hash, never serialized
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func NewTenant(tenantID id.TenantID, name, apiKeyHash string, now time.Time) (*Tenant, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > maxTenantNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	if apiKeyHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant requires an API key hash")
	}
	return &Tenant{
		ID:         tenantID,
		Name:       name,
		Status:     TenantStatusActive,
		APIKeyHash: apiKeyHash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// CanDeactivate checks if the tenant can transition to inactive status.
// Use with ApplyDeactivation in Execute callbacks so the store holds its
// lock across both validation and mutation.
func (t *Tenant) CanDeactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusInactive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the tenant to inactive status.
// Call CanDeactivate first to validate the transition.
func (t *Tenant) ApplyDeactivation(now time.Time) {
	t.Status = TenantStatusInactive
	t.UpdatedAt = now
}

// CanReactivate checks if the tenant can transition to active status.
func (t *Tenant) CanReactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	return nil
}

// ApplyReactivation transitions the tenant to active status.
// Call CanReactivate first to validate the transition.
func (t *Tenant) ApplyReactivation(now time.Time) {
	t.Status = TenantStatusActive
	t.UpdatedAt = now
}

// RotateAPIKey replaces the stored key hash. The previous key stops
// verifying immediately; there is no overlap window.
func (t *Tenant) RotateAPIKey(apiKeyHash string, now time.Time) error {
	if apiKeyHash == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant requires an API key hash")
	}
	t.APIKeyHash = apiKeyHash
	t.UpdatedAt = now
	return nil
}
