// Package service orchestrates tenant lifecycle management: provisioning,
// status transitions, and API key rotation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatehouse/internal/audit"
	tenantmetrics "gatehouse/internal/tenant/metrics"
	"gatehouse/internal/tenant/models"
	"gatehouse/internal/tenant/secrets"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/sentinel"
	"gatehouse/pkg/requestcontext"
)

// ResourceTypeTenant is the audit resource type for tenant records.
const ResourceTypeTenant = "tenant"

// TenantStore persists tenant records. Execute runs a validate-then-mutate
// callback pair while the backend holds its lock (mutex or FOR UPDATE).
type TenantStore interface {
	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindByName(ctx context.Context, name string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error)
}

// AuditRecorder records tenant lifecycle events.
type AuditRecorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates tenant management.
type Service struct {
	tenants TenantStore
	logger  *slog.Logger
	auditor AuditRecorder
	metrics *tenantmetrics.Metrics
}

type Option func(s *Service)

func WithAuditRecorder(auditor AuditRecorder) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(tenants TenantStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{tenants: tenants, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTenant provisions a tenant with a freshly generated API key. The
// plaintext key is returned exactly once; only its hash is stored.
func (s *Service) CreateTenant(ctx context.Context, name string) (*models.Tenant, string, error) {
	name = strings.TrimSpace(name)

	apiKey, err := secrets.Generate()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate api key")
	}
	hash, err := secrets.Hash(apiKey)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash api key")
	}

	tenant, err := models.NewTenant(id.TenantID(uuid.New()), name, hash, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, "", dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, "", err
	}

	if err := s.tenants.CreateIfNameAvailable(ctx, tenant); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, "", dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
	}

	s.emitTenantEvent(ctx, audit.EventTenantCreated, tenant)
	s.metrics.IncrementTenantsCreated()
	return tenant, apiKey, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return tenant, nil
}

// GetTenantByName retrieves a tenant by name (case-insensitive).
func (s *Service) GetTenantByName(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant name is required")
	}
	tenant, err := s.tenants.FindByName(ctx, name)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return tenant, nil
}

func (s *Service) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
	}
	return tenants, nil
}

// DeactivateTenant transitions a tenant to inactive status. The store holds
// its lock across validation and mutation, so concurrent transitions on the
// same tenant cannot interleave.
func (s *Service) DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "tenant is already inactive")
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyDeactivation(now)
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emitTenantEvent(ctx, audit.EventTenantDeactivated, tenant)
	s.metrics.IncrementStatusTransition(string(models.TenantStatusInactive))
	return tenant, nil
}

// ReactivateTenant transitions a tenant back to active status.
func (s *Service) ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "tenant is already active")
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyReactivation(now)
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emitTenantEvent(ctx, audit.EventTenantReactivated, tenant)
	s.metrics.IncrementStatusTransition(string(models.TenantStatusActive))
	return tenant, nil
}

// RotateAPIKey replaces the tenant's API key and returns the new plaintext
// key exactly once. The previous key stops verifying immediately.
func (s *Service) RotateAPIKey(ctx context.Context, tenantID id.TenantID) (string, error) {
	if err := requireTenantID(tenantID); err != nil {
		return "", err
	}

	apiKey, err := secrets.Generate()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate api key")
	}
	hash, err := secrets.Hash(apiKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash api key")
	}

	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error { return nil },
		func(t *models.Tenant) {
			_ = t.RotateAPIKey(hash, now)
		},
	)
	if err != nil {
		return "", wrapTenantErr(err)
	}

	s.emitTenantEvent(ctx, audit.EventAPIKeyRotated, tenant)
	s.metrics.IncrementAPIKeysRotated()
	return apiKey, nil
}

// VerifyAPIKey checks a presented key against the tenant's stored hash.
// Inactive tenants fail verification even with the correct key: deactivation
// is enforced here, at the single point all API key auth flows through.
func (s *Service) VerifyAPIKey(ctx context.Context, tenantID id.TenantID, key string) error {
	start := time.Now()
	defer s.metrics.ObserveVerifyAPIKey(start)

	if err := requireTenantID(tenantID); err != nil {
		return err
	}
	if key == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "api key is required")
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Indistinguishable from a bad key so probes cannot enumerate tenants.
			return dErrors.New(dErrors.CodeUnauthorized, "invalid api key")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
	}
	if !tenant.IsActive() {
		return dErrors.New(dErrors.CodeUnauthorized, "tenant is not active")
	}
	if err := secrets.Verify(key, tenant.APIKeyHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid api key")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify api key")
	}
	return nil
}

// CheckTenantActive reports whether the tenant exists and is active. Used by
// the middleware layer to cut off deactivated tenants before their bearer
// tokens expire.
func (s *Service) CheckTenantActive(ctx context.Context, tenantID id.TenantID) error {
	if err := requireTenantID(tenantID); err != nil {
		return err
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return wrapTenantErr(err)
	}
	if !tenant.IsActive() {
		return dErrors.New(dErrors.CodeForbidden, "tenant is not active")
	}
	return nil
}

func (s *Service) emitTenantEvent(ctx context.Context, action audit.AuditAction, tenant *models.Tenant) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		TenantID:     tenant.ID,
		Action:       string(action),
		ResourceType: ResourceTypeTenant,
		ResourceID:   tenant.ID.String(),
	})
	if err != nil {
		// Best effort: the mutation already happened and must not be rolled
		// back over a trail failure.
		s.logger.ErrorContext(ctx, "failed to audit tenant event",
			"tenant_id", tenant.ID,
			"action", action,
			"error", err,
		)
	}
}

func requireTenantID(tenantID id.TenantID) error {
	if tenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	return nil
}

func wrapTenantErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
}
