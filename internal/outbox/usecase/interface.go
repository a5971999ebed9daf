// Package usecase implements the outbox business logic: storing side effects next to the
// business change that caused them and delivering them later with bounded retries.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/credits/internal/outbox/domain"
)

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetDispatchable(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error)
	ListByStatus(
		ctx context.Context,
		status domain.OutboxEventStatus,
		offset, limit int,
	) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventStore is the part of Store the dispatcher needs.
type EventStore interface {
	FetchDispatchable(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkSucceeded(ctx context.Context, event *domain.OutboxEvent) error
	MarkFailed(ctx context.Context, event *domain.OutboxEvent, cause error) error
}

// WalletClient credits an owner's wallet. Implementations must treat idempotencyKey as the
// deduplication key on the receiving side.
type WalletClient interface {
	Credit(
		ctx context.Context,
		ownerID uuid.UUID,
		quantity decimal.Decimal,
		correlationID, idempotencyKey string,
	) error
}

// AuditLogClient records an audit entry. Recording the same action and data twice must be
// harmless.
type AuditLogClient interface {
	Record(ctx context.Context, action string, data map[string]any) error
}

// Locker guards a dispatcher tick across instances. When ok is false another instance holds
// the lock and the tick must be skipped.
type Locker interface {
	TryLock(ctx context.Context) (unlock func(context.Context) error, ok bool, err error)
}
