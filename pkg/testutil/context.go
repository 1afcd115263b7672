package testutil

import (
	"net/http"
	"time"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/requestcontext"
)

// WithActor adds an actor ID to the request context, simulating what the
// auth middleware does for authenticated requests. Invalid IDs are silently
// ignored.
func WithActor(req *http.Request, actorID string) *http.Request {
	if parsed, err := id.ParseActorID(actorID); err == nil {
		return req.WithContext(requestcontext.WithActorID(req.Context(), parsed))
	}
	return req
}

// WithTenant adds a tenant ID to the request context. Invalid IDs are
// silently ignored.
func WithTenant(req *http.Request, tenantID string) *http.Request {
	if parsed, err := id.ParseTenantID(tenantID); err == nil {
		return req.WithContext(requestcontext.WithTenantID(req.Context(), parsed))
	}
	return req
}

// WithIdentity adds both actor and tenant to the request context. This is
// the typical state for an authenticated request.
func WithIdentity(req *http.Request, actorID, tenantID string) *http.Request {
	return WithTenant(WithActor(req, actorID), tenantID)
}

// WithFrozenTime pins the request clock so assertions on timestamps are
// deterministic.
func WithFrozenTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
