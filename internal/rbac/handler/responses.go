package handler

import (
	"time"

	"gatehouse/internal/rbac/models"
)

// RoleResponse is one role in HTTP responses.
type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromRole converts a domain role to an HTTP response.
func FromRole(role *models.Role) *RoleResponse {
	return &RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Description: role.Description,
		Permissions: role.Permissions,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

// RolesResponse is the HTTP response for role listings.
type RolesResponse struct {
	Roles []RoleResponse `json:"roles"`
	Count int            `json:"count"`
}

// FromRoles converts domain roles to an HTTP response.
func FromRoles(roles []*models.Role) *RolesResponse {
	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, *FromRole(role))
	}
	return &RolesResponse{Roles: out, Count: len(out)}
}

// PermissionsResponse is the HTTP response for effective permission queries.
type PermissionsResponse struct {
	Permissions []string `json:"permissions"`
}
