// Package request provides request-ID middleware. Every request gets a
// correlation ID (inbound X-Request-ID if present, otherwise a fresh UUID)
// that flows through logs and audit events.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"gatehouse/pkg/requestcontext"
)

// HeaderRequestID is the header used for inbound and outbound correlation IDs.
const HeaderRequestID = "X-Request-ID"

// Middleware assigns a request ID and echoes it back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
