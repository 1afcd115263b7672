package handler

import (
	"strings"

	dErrors "gatehouse/pkg/domain-errors"
)

const maxPermissionsPerRole = 200

// RoleRequest is the HTTP request body for creating or updating a role.
// Deep validation (permission grammar, name length) lives in the domain
// model; this only rejects obviously hopeless payloads early.
type RoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Permissions) == 0 {
		return dErrors.New(dErrors.CodeValidation, "permissions is required")
	}
	if len(r.Permissions) > maxPermissionsPerRole {
		return dErrors.New(dErrors.CodeValidation, "too many permissions")
	}
	return nil
}
