package audit

import (
	"time"

	id "gatehouse/pkg/domain"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: authorization decisions, resource mutations, role grants.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics. These feed into SIEM systems and alerting pipelines.
	// Examples: denied checks, API key rotations, tenant deactivation.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID           uuid.UUID
	Category     EventCategory
	Timestamp    time.Time
	TenantID     id.TenantID
	ActorID      id.ActorID
	// Subject identifies the entity acted upon when it is not the resource
	// itself, e.g. the actor receiving a role grant.
	Subject      string
	Action       string
	ResourceType string
	ResourceID   string
	Decision     string
	Reason       string
	// Changes carries the redacted field-level diff for mutation events.
	// Nil for events that have no before/after snapshots.
	Changes ChangeSet
	// Request correlation and client forensics, filled from context by the
	// recorder when the originating middleware ran.
	RequestID string
	ClientIP  string
	Device    string
}

// AuditAction names a loggable action. The string value is what lands in
// storage and on the wire.
type AuditAction string

const (
	// Authorization events
	EventDecisionMade AuditAction = "decision_made"

	// Resource mutation events (carry change sets)
	EventResourceChanged AuditAction = "resource_changed"

	// RBAC events
	EventRoleCreated  AuditAction = "role_created"
	EventRoleUpdated  AuditAction = "role_updated"
	EventRoleDeleted  AuditAction = "role_deleted"
	EventRoleAssigned AuditAction = "role_assigned"
	EventRoleRevoked  AuditAction = "role_revoked"

	// Tenant events
	EventTenantCreated     AuditAction = "tenant_created"
	EventTenantDeactivated AuditAction = "tenant_deactivated"
	EventTenantReactivated AuditAction = "tenant_reactivated"
	EventAPIKeyRotated     AuditAction = "api_key_rotated"
)

// actionCategories maps each audit action to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: security monitoring, SIEM integration, alerting.
// Operations: debugging, operational visibility, can be sampled.
var actionCategories = map[AuditAction]EventCategory{
	// Compliance events - require tamper-proof storage
	EventDecisionMade:    CategoryCompliance,
	EventResourceChanged: CategoryCompliance,
	EventRoleAssigned:    CategoryCompliance,
	EventRoleRevoked:     CategoryCompliance,

	// Security events - feed into SIEM and alerting
	EventRoleCreated:       CategorySecurity,
	EventRoleUpdated:       CategorySecurity,
	EventRoleDeleted:       CategorySecurity,
	EventTenantDeactivated: CategorySecurity,
	EventAPIKeyRotated:     CategorySecurity,

	// Operations events - routine activity, can be sampled
	EventTenantCreated:     CategoryOperations,
	EventTenantReactivated: CategoryOperations,
}

// Category returns the EventCategory for this audit action.
// Unknown actions default to CategoryOperations.
func (a AuditAction) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
