// Package consumer materializes audit events from the Kafka topic into the
// query table. Materialization is idempotent, so redelivery from the relay
// is harmless.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatehouse/internal/audit"
	"gatehouse/internal/audit/metrics"
	kafkaconsumer "gatehouse/internal/platform/kafka/consumer"
	id "gatehouse/pkg/domain"
)

// MaterializeStore is the storage surface for materialized events.
type MaterializeStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Handler processes audit events from the topic and writes them to the
// query table.
type Handler struct {
	store   MaterializeStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewHandler(store MaterializeStore, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{store: store, metrics: m, logger: logger}
}

// eventPayload matches the JSON structure written by the outbox store.
type eventPayload struct {
	ID           string              `json:"ID"`
	Category     string              `json:"Category"`
	Timestamp    string              `json:"Timestamp"`
	TenantID     string              `json:"TenantID"`
	ActorID      string              `json:"ActorID"`
	Subject      string              `json:"Subject"`
	Action       string              `json:"Action"`
	ResourceType string              `json:"ResourceType"`
	ResourceID   string              `json:"ResourceID"`
	Decision     string              `json:"Decision"`
	Reason       string              `json:"Reason"`
	Changes      []audit.FieldChange `json:"Changes"`
	RequestID    string              `json:"RequestID"`
	ClientIP     string              `json:"ClientIP"`
	Device       string              `json:"Device"`
}

// Handle materializes one audit event. Malformed messages are logged and
// committed; they can never become valid and must not block the partition.
func (h *Handler) Handle(ctx context.Context, msg *kafkaconsumer.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		h.logger.Error("CRITICAL: failed to parse audit event ID",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	var payload eventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.Error("CRITICAL: failed to unmarshal audit payload",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	if payload.TenantID == "" {
		h.logger.Error("CRITICAL: audit event missing tenant",
			"event_id", eventID,
			"action", payload.Action,
		)
		return nil
	}

	event := audit.Event{
		ID:           eventID,
		Category:     audit.EventCategory(payload.Category),
		Subject:      payload.Subject,
		Action:       payload.Action,
		ResourceType: payload.ResourceType,
		ResourceID:   payload.ResourceID,
		Decision:     payload.Decision,
		Reason:       payload.Reason,
		Changes:      payload.Changes,
		RequestID:    payload.RequestID,
		ClientIP:     payload.ClientIP,
		Device:       payload.Device,
	}
	if event.Category == "" {
		event.Category = audit.AuditAction(payload.Action).Category()
	}

	if ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err == nil {
		event.Timestamp = ts
	} else {
		event.Timestamp = time.Now()
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		h.logger.Error("CRITICAL: audit event tenant is not a UUID",
			"event_id", eventID,
			"tenant_id", payload.TenantID,
		)
		return nil
	}
	event.TenantID = id.TenantID(tenantID)

	if payload.ActorID != "" {
		if actorID, err := uuid.Parse(payload.ActorID); err == nil {
			event.ActorID = id.ActorID(actorID)
		}
	}

	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		h.logger.Error("failed to materialize audit event",
			"event_id", eventID,
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("materialize audit event: %w", err)
	}

	h.metrics.IncrementMaterialized()
	h.logger.Debug("materialized audit event",
		"event_id", eventID,
		"action", event.Action,
		"tenant_id", event.TenantID,
	)
	return nil
}
