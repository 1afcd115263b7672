// Package domain defines the primitive types shared by every feature package:
// typed identifiers, the action enum, and resource type tags.
//
// Typed IDs prevent cross-entity assignment at compile time. Construct them
// via the Parse functions at trust boundaries; direct casting bypasses
// validation and is reserved for code that already holds a valid uuid.
package domain

import (
	"github.com/google/uuid"

	dErrors "gatehouse/pkg/domain-errors"
)

// ActorID identifies the authenticated identity performing an action.
type ActorID uuid.UUID

// TenantID identifies the tenant an actor or resource belongs to.
type TenantID uuid.UUID

// ResourceID identifies the entity instance being acted upon.
type ResourceID uuid.UUID

// RoleID identifies a named permission bundle.
type RoleID uuid.UUID

// parseUUID enforces the shared ID invariant: valid, non-empty, non-nil.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be nil")
	}
	return u, nil
}

// ParseActorID constructs an ActorID from external input.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s, "actor")
	return ActorID(u), err
}

// ParseTenantID constructs a TenantID from external input.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant")
	return TenantID(u), err
}

// ParseResourceID constructs a ResourceID from external input.
func ParseResourceID(s string) (ResourceID, error) {
	u, err := parseUUID(s, "resource")
	return ResourceID(u), err
}

// ParseRoleID constructs a RoleID from external input.
func ParseRoleID(s string) (RoleID, error) {
	u, err := parseUUID(s, "role")
	return RoleID(u), err
}

func (i ActorID) String() string    { return uuid.UUID(i).String() }
func (i TenantID) String() string   { return uuid.UUID(i).String() }
func (i ResourceID) String() string { return uuid.UUID(i).String() }
func (i RoleID) String() string     { return uuid.UUID(i).String() }

func (i ActorID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i TenantID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }
func (i ResourceID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i RoleID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
