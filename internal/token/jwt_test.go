package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", time.Hour)
	actorID := id.ActorID(uuid.New())
	tenantID := id.TenantID(uuid.New())

	tokenString, err := svc.GenerateAccessToken(actorID, tenantID)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, actorID, claims.ActorID)
	assert.Equal(t, tenantID, claims.TenantID)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", -time.Minute)

	tokenString, err := svc.GenerateAccessToken(id.ActorID(uuid.New()), id.TenantID(uuid.New()))
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	issuer := NewJWTService("key-one", time.Hour)
	verifier := NewJWTService("key-two", time.Hour)

	tokenString, err := issuer.GenerateAccessToken(id.ActorID(uuid.New()), id.TenantID(uuid.New()))
	require.NoError(t, err)

	_, err = verifier.ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}
