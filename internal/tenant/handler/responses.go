package handler

import (
	"time"

	"gatehouse/internal/tenant/models"
)

// TenantResponse is one tenant in HTTP responses. The API key hash never
// leaves the service.
type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromTenant converts a domain tenant to an HTTP response.
func FromTenant(tenant *models.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:        tenant.ID.String(),
		Name:      tenant.Name,
		Status:    string(tenant.Status),
		CreatedAt: tenant.CreatedAt,
		UpdatedAt: tenant.UpdatedAt,
	}
}

// CreatedTenantResponse carries the one-time plaintext API key alongside the
// tenant. The key is not recoverable afterwards, only rotatable.
type CreatedTenantResponse struct {
	TenantResponse
	APIKey string `json:"api_key"`
}

// RotatedKeyResponse is the HTTP response for API key rotation.
type RotatedKeyResponse struct {
	APIKey string `json:"api_key"`
}

// TenantsResponse is the HTTP response for tenant listings.
type TenantsResponse struct {
	Tenants []TenantResponse `json:"tenants"`
	Count   int              `json:"count"`
}

// FromTenants converts domain tenants to an HTTP response.
func FromTenants(tenants []*models.Tenant) *TenantsResponse {
	out := make([]TenantResponse, 0, len(tenants))
	for _, tenant := range tenants {
		out = append(out, *FromTenant(tenant))
	}
	return &TenantsResponse{Tenants: out, Count: len(out)}
}
