package handler

import (
	"strings"

	"gatehouse/internal/authz"
	id "gatehouse/pkg/domain"
	dErrors "gatehouse/pkg/domain-errors"
)

// maxBatchSize bounds one batch request; larger batches should page.
const maxBatchSize = 50

// CheckRequest is the HTTP request body for POST /authz/check.
type CheckRequest struct {
	Action       string           `json:"action"`
	ResourceType string           `json:"resource_type"`
	Resource     *ResourceRequest `json:"resource,omitempty"`

	// Parsed values (populated by Validate)
	parsedAction       id.Action
	parsedResourceType id.ResourceType
	parsedResource     *authz.Resource
}

// ResourceRequest identifies the target instance of an instance-scoped check.
type ResourceRequest struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	TenantID string `json:"tenant_id"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Action = strings.TrimSpace(r.Action)
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	action, err := id.ParseAction(r.Action)
	if err != nil {
		return err
	}
	r.parsedAction = action

	r.ResourceType = strings.TrimSpace(r.ResourceType)
	if r.ResourceType == "" {
		return dErrors.New(dErrors.CodeValidation, "resource_type is required")
	}
	resourceType, err := id.ParseResourceType(r.ResourceType)
	if err != nil {
		return err
	}
	r.parsedResourceType = resourceType

	if action.Scope() == id.ScopeInstance {
		if r.Resource == nil {
			return dErrors.New(dErrors.CodeValidation, "resource is required for instance-scoped action")
		}
		resource, err := r.Resource.parse()
		if err != nil {
			return err
		}
		r.parsedResource = resource
	}

	return nil
}

func (rr *ResourceRequest) parse() (*authz.Resource, error) {
	resourceID, err := id.ParseResourceID(strings.TrimSpace(rr.ID))
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseActorID(strings.TrimSpace(rr.OwnerID))
	if err != nil {
		return nil, err
	}
	tenantID, err := id.ParseTenantID(strings.TrimSpace(rr.TenantID))
	if err != nil {
		return nil, err
	}
	return &authz.Resource{ID: resourceID, OwnerID: ownerID, TenantID: tenantID}, nil
}

// Domain builds the service request for the authenticated identity.
func (r *CheckRequest) Domain(actorID id.ActorID, tenantID id.TenantID) authz.CheckRequest {
	return authz.CheckRequest{
		ActorID:      actorID,
		TenantID:     tenantID,
		Action:       r.parsedAction,
		ResourceType: r.parsedResourceType,
		Resource:     r.parsedResource,
	}
}

// CheckBatchRequest is the HTTP request body for POST /authz/check-batch.
type CheckBatchRequest struct {
	Checks []CheckRequest `json:"checks"`
}

// Validate validates every check in the batch.
func (r *CheckBatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Checks) == 0 {
		return dErrors.New(dErrors.CodeValidation, "checks is required")
	}
	if len(r.Checks) > maxBatchSize {
		return dErrors.New(dErrors.CodeValidation, "batch exceeds maximum size")
	}
	for i := range r.Checks {
		if err := r.Checks[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Domain builds the service requests for the authenticated identity.
func (r *CheckBatchRequest) Domain(actorID id.ActorID, tenantID id.TenantID) []authz.CheckRequest {
	reqs := make([]authz.CheckRequest, len(r.Checks))
	for i := range r.Checks {
		reqs[i] = r.Checks[i].Domain(actorID, tenantID)
	}
	return reqs
}
