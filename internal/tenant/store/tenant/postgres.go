package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatehouse/internal/tenant/models"
	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore is the pgx-backed tenant store. Case-insensitive name
// uniqueness is enforced by a unique index on LOWER(name).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, status, api_key_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		tenant.ID, tenant.Name, tenant.Status, tenant.APIKeyHash,
		tenant.CreatedAt, tenant.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, status, api_key_hash, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`, tenantID)
	return scanTenant(row)
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, status, api_key_hash, created_at, updated_at
		FROM tenants
		WHERE LOWER(name) = LOWER(TRIM($1))
	`, name)
	return scanTenant(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, status, api_key_hash, created_at, updated_at
		FROM tenants
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

func (s *PostgresStore) Update(ctx context.Context, tenant *models.Tenant) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenants
		SET name = $2, status = $3, api_key_hash = $4, updated_at = $5
		WHERE id = $1
	`,
		tenant.ID, tenant.Name, tenant.Status, tenant.APIKeyHash, tenant.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute loads the tenant with a row lock, runs validate then mutate, and
// persists the result in the same transaction. Concurrent transitions on the
// same tenant serialize on the FOR UPDATE lock.
func (s *PostgresStore) Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT id, name, status, api_key_hash, created_at, updated_at
		FROM tenants
		WHERE id = $1
		FOR UPDATE
	`, tenantID)
	tenant, err := scanTenant(row)
	if err != nil {
		return nil, err
	}

	if err := validate(tenant); err != nil {
		return nil, err
	}
	mutate(tenant)

	_, err = tx.Exec(ctx, `
		UPDATE tenants
		SET name = $2, status = $3, api_key_hash = $4, updated_at = $5
		WHERE id = $1
	`,
		tenant.ID, tenant.Name, tenant.Status, tenant.APIKeyHash, tenant.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return tenant, nil
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var tenant models.Tenant
	err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Status,
		&tenant.APIKeyHash,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query tenant: %w", err)
	}
	return &tenant, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
