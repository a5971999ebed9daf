package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/credits/internal/errors"
	"github.com/allisson/credits/internal/outbox/domain"
)

// maxLastErrorLength bounds the stored last_error text.
const maxLastErrorLength = 1024

// Store persists outbox events and applies the delivery state transitions.
type Store struct {
	repo        OutboxEventRepository
	maxAttempts int
	backoff     domain.BackoffPolicy
	now         func() time.Time
}

// NewStore creates a Store. Events are marked failed after maxAttempts failed deliveries.
func NewStore(repo OutboxEventRepository, maxAttempts int, backoff domain.BackoffPolicy) *Store {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Store{
		repo:        repo,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue records payload as a pending event. When ctx carries a transaction the row is
// written in it, so the event commits or rolls back together with the business change.
func (s *Store) Enqueue(
	ctx context.Context,
	payload domain.Payload,
	correlationID, idempotencyKey string,
) (*domain.OutboxEvent, error) {
	raw, err := domain.EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	event := &domain.OutboxEvent{
		ID:            uuid.Must(uuid.NewV7()),
		EventType:     payload.EventType(),
		Status:        domain.OutboxEventStatusPending,
		Payload:       raw,
		Attempts:      0,
		NextAttemptAt: now.Add(s.backoff.Initial),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if correlationID != "" {
		event.CorrelationID = &correlationID
	}
	if idempotencyKey != "" {
		event.IdempotencyKey = &idempotencyKey
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, errors.Wrap(err, "failed to enqueue outbox event")
	}
	return event, nil
}

// FetchDispatchable returns up to limit pending events that are due now, oldest first.
func (s *Store) FetchDispatchable(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return s.repo.GetDispatchable(ctx, s.now(), limit)
}

// ListFailed returns events that exhausted their retries or failed permanently.
func (s *Store) ListFailed(ctx context.Context, offset, limit int) ([]*domain.OutboxEvent, error) {
	return s.repo.ListByStatus(ctx, domain.OutboxEventStatusFailed, offset, limit)
}

// MarkSucceeded moves event to sent.
func (s *Store) MarkSucceeded(ctx context.Context, event *domain.OutboxEvent) error {
	event.Status = domain.OutboxEventStatusSent
	event.LastError = nil
	event.UpdatedAt = s.now()
	return s.repo.Update(ctx, event)
}

// MarkFailed records a failed delivery. The event becomes failed when cause is permanent or
// the attempt budget is spent; otherwise it is rescheduled after the backoff delay.
func (s *Store) MarkFailed(ctx context.Context, event *domain.OutboxEvent, cause error) error {
	now := s.now()

	event.Attempts++
	event.UpdatedAt = now
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	msg = errors.Truncate(msg, maxLastErrorLength)
	event.LastError = &msg

	if errors.Is(cause, errors.ErrPermanentDelivery) || event.Attempts >= s.maxAttempts {
		event.Status = domain.OutboxEventStatusFailed
	} else {
		event.NextAttemptAt = s.backoff.NextAttemptAt(now, event.Attempts)
	}

	return s.repo.Update(ctx, event)
}
