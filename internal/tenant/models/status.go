package models

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// CanTransitionTo reports whether the status machine allows moving to the
// target status. The only legal transitions are active <-> inactive.
func (s TenantStatus) CanTransitionTo(target TenantStatus) bool {
	switch s {
	case TenantStatusActive:
		return target == TenantStatusInactive
	case TenantStatusInactive:
		return target == TenantStatusActive
	default:
		return false
	}
}

// IsValid reports whether the status is one of the known states.
func (s TenantStatus) IsValid() bool {
	return s == TenantStatusActive || s == TenantStatusInactive
}
