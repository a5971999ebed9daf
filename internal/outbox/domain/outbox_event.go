// Package domain defines the core outbox domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the side effect an outbox event stands for.
type EventType string

const (
	EventTypeAuditEvent   EventType = "audit_event"
	EventTypeWalletCredit EventType = "wallet_credit"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending OutboxEventStatus = "pending"
	OutboxEventStatusSent    OutboxEventStatus = "sent"
	OutboxEventStatusFailed  OutboxEventStatus = "failed"
)

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID             uuid.UUID
	EventType      EventType
	Status         OutboxEventStatus
	Payload        string // JSON, written once at enqueue time
	CorrelationID  *string
	IdempotencyKey *string
	Attempts       int
	NextAttemptAt  time.Time
	LastError      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDispatchable reports whether the event is pending and due at now.
func (e *OutboxEvent) IsDispatchable(now time.Time) bool {
	return e.Status == OutboxEventStatusPending && !e.NextAttemptAt.After(now)
}

// CorrelationIDValue returns the correlation id or an empty string.
func (e *OutboxEvent) CorrelationIDValue() string {
	if e.CorrelationID == nil {
		return ""
	}
	return *e.CorrelationID
}
