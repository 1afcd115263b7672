package handler

import (
	"gatehouse/internal/authz"
)

// DecisionResponse is the HTTP response for POST /authz/check.
type DecisionResponse struct {
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason"`
	Permission string `json:"permission,omitempty"`
}

// FromDecision converts a domain Decision to an HTTP response.
func FromDecision(d authz.Decision) *DecisionResponse {
	return &DecisionResponse{
		Allowed:    d.Allowed,
		Reason:     string(d.Reason),
		Permission: d.Permission,
	}
}

// BatchResponse is the HTTP response for POST /authz/check-batch. Decisions
// are in request order.
type BatchResponse struct {
	Decisions []DecisionResponse `json:"decisions"`
}

// FromDecisions converts domain decisions to an HTTP response.
func FromDecisions(ds []authz.Decision) *BatchResponse {
	out := make([]DecisionResponse, len(ds))
	for i, d := range ds {
		out[i] = *FromDecision(d)
	}
	return &BatchResponse{Decisions: out}
}
