// Package memory is the in-memory rbac store for tests and local
// development. It mirrors the postgres store's semantics: per-tenant role
// name uniqueness, cascade delete of assignments, union permission
// resolution.
package memory

import (
	"context"
	"sync"

	"gatehouse/internal/rbac/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/sentinel"
)

type roleKey struct {
	tenantID id.TenantID
	roleID   id.RoleID
}

type assignmentKey struct {
	tenantID id.TenantID
	actorID  id.ActorID
	roleID   id.RoleID
}

type Store struct {
	mu          sync.RWMutex
	roles       map[roleKey]*models.Role
	assignments map[assignmentKey]models.Assignment
}

func New() *Store {
	return &Store{
		roles:       make(map[roleKey]*models.Role),
		assignments: make(map[assignmentKey]models.Assignment),
	}
}

func (s *Store) Create(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.roles {
		if existing.TenantID == role.TenantID && existing.Name == role.Name {
			return sentinel.ErrConflict
		}
	}

	s.roles[roleKey{role.TenantID, role.ID}] = cloneRole(role)
	return nil
}

func (s *Store) FindByID(_ context.Context, tenantID id.TenantID, roleID id.RoleID) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.roles[roleKey{tenantID, roleID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRole(role), nil
}

func (s *Store) Update(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := roleKey{role.TenantID, role.ID}
	if _, ok := s.roles[key]; !ok {
		return sentinel.ErrNotFound
	}
	for k, existing := range s.roles {
		if k != key && existing.TenantID == role.TenantID && existing.Name == role.Name {
			return sentinel.ErrConflict
		}
	}

	s.roles[key] = cloneRole(role)
	return nil
}

func (s *Store) Delete(_ context.Context, tenantID id.TenantID, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := roleKey{tenantID, roleID}
	if _, ok := s.roles[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.roles, key)

	for k := range s.assignments {
		if k.tenantID == tenantID && k.roleID == roleID {
			delete(s.assignments, k)
		}
	}
	return nil
}

func (s *Store) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Role
	for _, role := range s.roles {
		if role.TenantID == tenantID {
			out = append(out, cloneRole(role))
		}
	}
	return out, nil
}

func (s *Store) Assign(_ context.Context, assignment models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{assignment.TenantID, assignment.ActorID, assignment.RoleID}
	if _, ok := s.assignments[key]; ok {
		return sentinel.ErrConflict
	}
	s.assignments[key] = assignment
	return nil
}

func (s *Store) Revoke(_ context.Context, tenantID id.TenantID, actorID id.ActorID, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{tenantID, actorID, roleID}
	if _, ok := s.assignments[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.assignments, key)
	return nil
}

// ListActorPermissions returns the deduplicated union of permissions across
// the actor's roles.
func (s *Store) ListActorPermissions(_ context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for key := range s.assignments {
		if key.tenantID != tenantID || key.actorID != actorID {
			continue
		}
		role, ok := s.roles[roleKey{tenantID, key.roleID}]
		if !ok {
			continue
		}
		for _, p := range role.Permissions {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out, nil
}

func cloneRole(role *models.Role) *models.Role {
	c := *role
	c.Permissions = append([]string{}, role.Permissions...)
	return &c
}
