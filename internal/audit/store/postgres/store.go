package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gatehouse/internal/audit"
	id "gatehouse/pkg/domain"
	txcontext "gatehouse/pkg/platform/tx"

	"github.com/google/uuid"
)

// Store implements audit.Store using the transactional outbox pattern.
// Append writes to the outbox table inside the caller's transaction; the
// relay publishes outbox rows to Kafka and the consumer materializes them
// into audit_events, which serves all reads. Kafka is the source of truth.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer picks the context transaction when one is open so the outbox write
// commits or rolls back with the business mutation it describes.
func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event for deserialization by the consumer.
type outboxPayload struct {
	ID           string              `json:"ID"`
	Category     string              `json:"Category"`
	Timestamp    string              `json:"Timestamp"`
	TenantID     string              `json:"TenantID"`
	ActorID      string              `json:"ActorID,omitempty"`
	Subject      string              `json:"Subject,omitempty"`
	Action       string              `json:"Action"`
	ResourceType string              `json:"ResourceType,omitempty"`
	ResourceID   string              `json:"ResourceID,omitempty"`
	Decision     string              `json:"Decision,omitempty"`
	Reason       string              `json:"Reason,omitempty"`
	Changes      []audit.FieldChange `json:"Changes,omitempty"`
	RequestID    string              `json:"RequestID,omitempty"`
	ClientIP     string              `json:"ClientIP,omitempty"`
	Device       string              `json:"Device,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := event.ID
	if eventID == uuid.Nil {
		eventID = uuid.New()
	}

	// Category derives from the action when unset; actionCategories is the
	// source of truth.
	category := event.Category
	if category == "" {
		category = audit.AuditAction(event.Action).Category()
	}

	payload := outboxPayload{
		ID:           eventID.String(),
		Category:     string(category),
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
		TenantID:     event.TenantID.String(),
		Subject:      event.Subject,
		Action:       event.Action,
		ResourceType: event.ResourceType,
		ResourceID:   event.ResourceID,
		Decision:     event.Decision,
		Reason:       event.Reason,
		Changes:      event.Changes,
		RequestID:    event.RequestID,
		ClientIP:     event.ClientIP,
		Device:       event.Device,
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if event.ResourceType != "" && event.ResourceID != "" {
		aggregateType = event.ResourceType
		aggregateID = event.ResourceID
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.New(), // outbox entry ID, distinct from the event ID inside the payload
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// AppendWithID inserts an audit event into the audit_events table with a
// specific ID. Used by the Kafka consumer to materialize events for
// querying. Idempotent via ON CONFLICT DO NOTHING.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	var changesJSON []byte
	if len(event.Changes) > 0 {
		var err error
		changesJSON, err = json.Marshal(event.Changes)
		if err != nil {
			return fmt.Errorf("marshal change set: %w", err)
		}
	}

	var actorID *uuid.UUID
	if !event.ActorID.IsNil() {
		aid := uuid.UUID(event.ActorID)
		actorID = &aid
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, tenant_id, actor_id, subject, action,
			resource_type, resource_id, decision, reason, changes,
			request_id, client_ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		eventID,
		string(event.Category),
		event.Timestamp,
		uuid.UUID(event.TenantID),
		actorID,
		event.Subject,
		event.Action,
		event.ResourceType,
		event.ResourceID,
		event.Decision,
		event.Reason,
		changesJSON,
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
		SELECT id, category, timestamp, tenant_id, actor_id, subject, action,
			   resource_type, resource_id, decision, reason, changes,
			   request_id, client_ip, device
		FROM audit_events
`

// ListByActor returns events performed by one actor within a tenant.
func (s *Store) ListByActor(ctx context.Context, tenantID id.TenantID, actorID id.ActorID) ([]audit.Event, error) {
	query := selectColumns + `
		WHERE tenant_id = $1 AND actor_id = $2
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(actorID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListByResource returns events touching one resource within a tenant.
func (s *Store) ListByResource(ctx context.Context, tenantID id.TenantID, resourceType, resourceID string) ([]audit.Event, error) {
	query := selectColumns + `
		WHERE tenant_id = $1 AND resource_type = $2 AND resource_id = $3
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the most recent events within a tenant.
func (s *Store) ListRecent(ctx context.Context, tenantID id.TenantID, limit int) ([]audit.Event, error) {
	query := selectColumns + `
		WHERE tenant_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event       audit.Event
			category    string
			tenantID    uuid.UUID
			actorID     *uuid.UUID
			changesJSON []byte
		)

		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&tenantID,
			&actorID,
			&event.Subject,
			&event.Action,
			&event.ResourceType,
			&event.ResourceID,
			&event.Decision,
			&event.Reason,
			&changesJSON,
			&event.RequestID,
			&event.ClientIP,
			&event.Device,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		event.TenantID = id.TenantID(tenantID)
		if actorID != nil {
			event.ActorID = id.ActorID(*actorID)
		}
		if len(changesJSON) > 0 {
			if err := json.Unmarshal(changesJSON, &event.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal change set: %w", err)
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
