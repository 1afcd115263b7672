// Package tenant groups tenant lifecycle management: provisioning, status
// transitions, and API key handling.
package tenant

import (
	"log/slog"

	"gatehouse/internal/tenant/handler"
	"gatehouse/internal/tenant/service"
)

// Service exposes tenant orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the tenant service.
type Handler = handler.Handler

// NewService constructs the tenant service with required dependencies.
func NewService(tenants service.TenantStore, logger *slog.Logger, opts ...service.Option) *Service {
	return service.New(tenants, logger, opts...)
}

// NewHandler constructs an HTTP handler for admin-facing tenant routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
