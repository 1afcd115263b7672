// Package token handles JWT creation and validation for admin-panel callers.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	authmw "gatehouse/pkg/platform/middleware/auth"
)

// Claims are the JWT claims carried by gatehouse access tokens.
type Claims struct {
	ActorID  string `json:"actor_id"`
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// JWTService signs and validates access tokens with an HMAC key.
type JWTService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewJWTService(signingKey string, ttl time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     "gatehouse",
		ttl:        ttl,
	}
}

// GenerateAccessToken issues a signed token binding an actor to its tenant.
func (s *JWTService) GenerateAccessToken(actorID id.ActorID, tenantID id.TenantID) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ActorID:  actorID.String(),
		TenantID: tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a token, returning middleware claims with
// typed IDs. All failures map to CodeUnauthorized.
func (s *JWTService) ValidateToken(tokenString string) (*authmw.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	actorID, err := id.ParseActorID(claims.ActorID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid actor claim")
	}
	tenantID, err := id.ParseTenantID(claims.TenantID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid tenant claim")
	}

	return &authmw.Claims{ActorID: actorID, TenantID: tenantID}, nil
}
