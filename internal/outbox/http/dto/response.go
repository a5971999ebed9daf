// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/json"
	"time"

	"github.com/allisson/credits/internal/outbox/domain"
)

// OutboxEventResponse represents an outbox event in API responses.
type OutboxEventResponse struct {
	ID             string          `json:"id"`
	EventType      string          `json:"event_type"`
	Status         string          `json:"status"`
	Payload        json.RawMessage `json:"payload"`
	CorrelationID  *string         `json:"correlation_id,omitempty"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	Attempts       int             `json:"attempts"`
	NextAttemptAt  time.Time       `json:"next_attempt_at"`
	LastError      *string         `json:"last_error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ListOutboxEventsResponse represents a paginated list of outbox events in API responses.
type ListOutboxEventsResponse struct {
	Data []OutboxEventResponse `json:"data"`
}

// MapOutboxEventToResponse converts a domain outbox event to an API response. A payload that is
// not valid JSON is rendered as a JSON string.
func MapOutboxEventToResponse(event *domain.OutboxEvent) OutboxEventResponse {
	payload := json.RawMessage(event.Payload)
	if !json.Valid(payload) {
		quoted, _ := json.Marshal(event.Payload)
		payload = quoted
	}
	return OutboxEventResponse{
		ID:             event.ID.String(),
		EventType:      string(event.EventType),
		Status:         string(event.Status),
		Payload:        payload,
		CorrelationID:  event.CorrelationID,
		IdempotencyKey: event.IdempotencyKey,
		Attempts:       event.Attempts,
		NextAttemptAt:  event.NextAttemptAt,
		LastError:      event.LastError,
		CreatedAt:      event.CreatedAt,
		UpdatedAt:      event.UpdatedAt,
	}
}

// MapOutboxEventsToListResponse converts a slice of domain outbox events to a list response.
func MapOutboxEventsToListResponse(events []*domain.OutboxEvent) ListOutboxEventsResponse {
	data := make([]OutboxEventResponse, 0, len(events))
	for _, event := range events {
		data = append(data, MapOutboxEventToResponse(event))
	}
	return ListOutboxEventsResponse{Data: data}
}
