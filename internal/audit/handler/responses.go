package handler

import (
	"time"

	"gatehouse/internal/audit"
)

// EventResponse is one audit event in HTTP responses.
type EventResponse struct {
	ID           string              `json:"id"`
	Category     string              `json:"category"`
	Timestamp    time.Time           `json:"timestamp"`
	ActorID      string              `json:"actor_id,omitempty"`
	Subject      string              `json:"subject,omitempty"`
	Action       string              `json:"action"`
	ResourceType string              `json:"resource_type,omitempty"`
	ResourceID   string              `json:"resource_id,omitempty"`
	Decision     string              `json:"decision,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	Changes      []audit.FieldChange `json:"changes,omitempty"`
	RequestID    string              `json:"request_id,omitempty"`
	ClientIP     string              `json:"client_ip,omitempty"`
	Device       string              `json:"device,omitempty"`
}

// ListResponse is the HTTP response for audit event listings.
type ListResponse struct {
	Events []EventResponse `json:"events"`
	Count  int             `json:"count"`
}

// FromEvents converts domain events to an HTTP response.
func FromEvents(events []audit.Event) *ListResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp := EventResponse{
			ID:           e.ID.String(),
			Category:     string(e.Category),
			Timestamp:    e.Timestamp,
			Subject:      e.Subject,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Decision:     e.Decision,
			Reason:       e.Reason,
			Changes:      e.Changes,
			RequestID:    e.RequestID,
			ClientIP:     e.ClientIP,
			Device:       e.Device,
		}
		if !e.ActorID.IsNil() {
			resp.ActorID = e.ActorID.String()
		}
		out = append(out, resp)
	}
	return &ListResponse{Events: out, Count: len(out)}
}
