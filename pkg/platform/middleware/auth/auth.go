// Package auth provides the bearer-token middleware that authenticates
// admin-panel callers and places the actor and tenant into the request context.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "gatehouse/pkg/domain"
	request "gatehouse/pkg/platform/middleware/request"
	"gatehouse/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the claims gatehouse
// cares about.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims are the validated identity claims extracted from a bearer token.
type Claims struct {
	ActorID  id.ActorID
	TenantID id.TenantID
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and injects the
// authenticated actor and tenant into the context for downstream handlers.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx := requestcontext.WithActorID(r.Context(), claims.ActorID)
			ctx = requestcontext.WithTenantID(ctx, claims.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
