package ports

import (
	"context"

	"gatehouse/internal/audit"
)

// AuditPort defines the interface for emitting audit events.
// This matches the audit recorder surface but is defined here
// to maintain hexagonal boundaries.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
