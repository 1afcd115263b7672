package auth

import (
	"context"
	"log/slog"
	"net/http"

	id "gatehouse/pkg/domain"
	request "gatehouse/pkg/platform/middleware/request"
	"gatehouse/pkg/requestcontext"
)

// APIKeyVerifier checks a presented tenant API key. Verification failure for
// any reason (bad key, unknown tenant, inactive tenant) returns an error.
type APIKeyVerifier interface {
	VerifyAPIKey(ctx context.Context, tenantID id.TenantID, key string) error
}

// TenantChecker reports whether a tenant is currently active.
type TenantChecker interface {
	CheckTenantActive(ctx context.Context, tenantID id.TenantID) error
}

// RequireAPIKey authenticates service-to-service callers via the
// X-Tenant-ID and X-API-Key headers and injects the tenant into the context.
// API key callers act on behalf of the tenant itself, so no actor is set.
func RequireAPIKey(verifier APIKeyVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tenantID, err := id.ParseTenantID(r.Header.Get("X-Tenant-ID"))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - missing or malformed tenant header",
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid X-Tenant-ID header")
				return
			}

			if err := verifier.VerifyAPIKey(ctx, tenantID, r.Header.Get("X-API-Key")); err != nil {
				logger.WarnContext(ctx, "unauthorized access - api key rejected",
					"tenant_id", tenantID,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithTenantID(ctx, tenantID)))
		})
	}
}

// RequireActiveTenant rejects authenticated requests whose tenant has been
// deactivated. Mount after RequireAuth: token expiry alone would leave a
// deactivated tenant's bearer tokens usable until they age out.
func RequireActiveTenant(checker TenantChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tenantID := requestcontext.TenantID(ctx)
			if tenantID.IsNil() {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			if err := checker.CheckTenantActive(ctx, tenantID); err != nil {
				logger.WarnContext(ctx, "forbidden access - tenant inactive",
					"tenant_id", tenantID,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Tenant is not active")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
