package handler

import (
	"strings"

	dErrors "gatehouse/pkg/domain-errors"
)

// CreateTenantRequest is the HTTP request body for provisioning a tenant.
// Deep validation (name length) lives in the domain model.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateTenantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}
