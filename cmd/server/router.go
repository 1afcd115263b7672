package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auditHTTP "gatehouse/internal/audit/handler"
	authzHTTP "gatehouse/internal/authz/handler"
	rbacHTTP "gatehouse/internal/rbac/handler"
	tenantHTTP "gatehouse/internal/tenant/handler"
	"gatehouse/pkg/platform/middleware/admin"
	"gatehouse/pkg/platform/middleware/auth"
	"gatehouse/pkg/platform/middleware/device"
	"gatehouse/pkg/platform/middleware/metadata"
	request "gatehouse/pkg/platform/middleware/request"
	"gatehouse/pkg/platform/middleware/requesttime"
)

// routerDeps carries everything the router needs. Services are interfaces so
// tests can wire memory-backed implementations.
type routerDeps struct {
	authz      authzHTTP.Service
	rbac       rbacHTTP.Service
	audit      auditHTTP.Service
	tenants    tenantHTTP.Service
	validator  auth.TokenValidator
	checker    auth.TenantChecker
	verifier   auth.APIKeyVerifier
	adminToken string
	health     http.HandlerFunc
}

// newRouter assembles the three surfaces: the bearer-token panel API, the
// tenant-key service API, and the operator admin API.
func newRouter(deps routerDeps, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(device.Middleware)

	if deps.health != nil {
		r.Get("/healthz", deps.health)
	}
	r.Handle("/metrics", promhttp.Handler())

	// Panel API: humans with bearer tokens. A deactivated tenant is cut off
	// here even while its tokens are still within their TTL.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.validator, logger))
		r.Use(auth.RequireActiveTenant(deps.checker, logger))

		authzHTTP.New(deps.authz, logger).Register(r)
		rbacHTTP.New(deps.rbac, logger).Register(r)
		auditHTTP.New(deps.audit, logger).Register(r)
	})

	// Service API: tenant backends authenticating with their API key. They
	// act as the tenant itself, so only tenant-scoped reads and role
	// management are exposed; authorization checks need an actor identity.
	r.Route("/service", func(r chi.Router) {
		r.Use(auth.RequireAPIKey(deps.verifier, logger))

		rbacHTTP.New(deps.rbac, logger).Register(r)
		auditHTTP.New(deps.audit, logger).Register(r)
	})

	// Admin API: operators provisioning tenants.
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(deps.adminToken, logger))

		tenantHTTP.New(deps.tenants, logger).Register(r)
	})

	return r
}
