// Package tenant provides storage backends for tenant records. Name
// uniqueness is case-insensitive in both backends.
package tenant

import (
	"context"
	"strings"
	"sync"

	id "gatehouse/pkg/domain"
	"gatehouse/internal/tenant/models"
	"gatehouse/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded tenant store for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
	byName  map[string]id.TenantID
}

func NewInMemory() *InMemory {
	return &InMemory{
		tenants: make(map[id.TenantID]*models.Tenant),
		byName:  make(map[string]id.TenantID),
	}
}

// CreateIfNameAvailable inserts the tenant unless its name is already taken.
// The check and the insert happen under one lock, mirroring the unique index
// the postgres backend relies on.
func (s *InMemory) CreateIfNameAvailable(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nameKey(tenant.Name)
	if _, taken := s.byName[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	clone := *tenant
	s.tenants[tenant.ID] = &clone
	s.byName[key] = tenant.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *tenant
	return &clone, nil
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID, ok := s.byName[nameKey(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.tenants[tenantID]
	return &clone, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Tenant, 0, len(s.tenants))
	for _, tenant := range s.tenants {
		clone := *tenant
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tenants[tenant.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byName, nameKey(current.Name))
	clone := *tenant
	s.tenants[tenant.ID] = &clone
	s.byName[nameKey(tenant.Name)] = tenant.ID
	return nil
}

// Execute loads the tenant, runs validate then mutate under the store lock,
// and persists the result. The postgres backend gives the same atomicity
// with SELECT ... FOR UPDATE.
func (s *InMemory) Execute(_ context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := *current
	if err := validate(&working); err != nil {
		return nil, err
	}
	mutate(&working)
	s.tenants[tenantID] = &working

	clone := working
	return &clone, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
