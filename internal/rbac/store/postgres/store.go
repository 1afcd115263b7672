// Package postgres is the pgx-backed rbac store. Roles carry their
// permission lists as text arrays; assignments cascade on role deletion via
// the schema's foreign key.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatehouse/internal/rbac/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, role *models.Role) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO roles (id, tenant_id, name, description, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		role.ID, role.TenantID, role.Name, role.Description, role.Permissions,
		role.CreatedAt, role.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, tenantID id.TenantID, roleID id.RoleID) (*models.Role, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, description, permissions, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, roleID)

	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query role: %w", err)
	}
	return role, nil
}

func (s *Store) Update(ctx context.Context, role *models.Role) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE roles
		SET name = $3, description = $4, permissions = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2
	`,
		role.TenantID, role.ID, role.Name, role.Description, role.Permissions,
		role.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, tenantID id.TenantID, roleID id.RoleID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM roles WHERE tenant_id = $1 AND id = $2
	`, tenantID, roleID)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, description, permissions, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

func (s *Store) Assign(ctx context.Context, assignment models.Assignment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO role_assignments (tenant_id, actor_id, role_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, assignment.TenantID, assignment.ActorID, assignment.RoleID, assignment.CreatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (s *Store) Revoke(ctx context.Context, tenantID id.TenantID, actorID id.ActorID, roleID id.RoleID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM role_assignments
		WHERE tenant_id = $1 AND actor_id = $2 AND role_id = $3
	`, tenantID, actorID, roleID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListActorPermissions resolves the deduplicated union of permissions across
// the actor's roles in one query.
func (s *Store) ListActorPermissions(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT permission
		FROM role_assignments ra
		JOIN roles r ON r.tenant_id = ra.tenant_id AND r.id = ra.role_id
		CROSS JOIN LATERAL unnest(r.permissions) AS permission
		WHERE ra.tenant_id = $1 AND ra.actor_id = $2
		ORDER BY permission
	`, tenantID, actorID)
	if err != nil {
		return nil, fmt.Errorf("query actor permissions: %w", err)
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		permissions = append(permissions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return permissions, nil
}

func scanRole(row pgx.Row) (*models.Role, error) {
	var role models.Role
	err := row.Scan(
		&role.ID,
		&role.TenantID,
		&role.Name,
		&role.Description,
		&role.Permissions,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
