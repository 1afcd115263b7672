package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatehouse/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
//
// Justification: This is a pure function enforcing a domain invariant
// at trust boundaries.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseActorID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseActorID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseActorID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseActorID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ActorID(validUUID), id)
	})
}

// TestParseID_SecurityInvariants validates trust-boundary parsing rules:
// parsing must reject attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE actors;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseActorID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestTenantIsolation_TypedIDs documents the tenancy invariant: an actor from
// tenant A must never touch resources from tenant B. Enforcement lives in the
// authz service; typed IDs ensure tenant context is never accidentally omitted.
func TestTenantIsolation_TypedIDs(t *testing.T) {
	tenantA := TenantID(uuid.New())
	tenantB := TenantID(uuid.New())

	assert.NotEqual(t, tenantA, tenantB, "different tenants must have different IDs")
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types share identical
// parsing behavior; inconsistent validation across ID types could create
// security holes.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errActor := ParseActorID(validUUID)
		_, errTenant := ParseTenantID(validUUID)
		_, errResource := ParseResourceID(validUUID)
		_, errRole := ParseRoleID(validUUID)

		assert.NoError(t, errActor)
		assert.NoError(t, errTenant)
		assert.NoError(t, errResource)
		assert.NoError(t, errRole)
	})

	t.Run("all reject invalid input", func(t *testing.T) {
		for _, input := range []string{"", "invalid", uuid.Nil.String()} {
			_, errActor := ParseActorID(input)
			_, errTenant := ParseTenantID(input)
			_, errResource := ParseResourceID(input)
			_, errRole := ParseRoleID(input)

			assert.Error(t, errActor, "actor: %q", input)
			assert.Error(t, errTenant, "tenant: %q", input)
			assert.Error(t, errResource, "resource: %q", input)
			assert.Error(t, errRole, "role: %q", input)
		}
	})
}
