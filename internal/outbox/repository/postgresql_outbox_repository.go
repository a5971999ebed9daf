// Package repository provides data persistence implementations for outbox entities.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/credits/internal/database"
	"github.com/allisson/credits/internal/outbox/domain"
)

// PostgreSQLOutboxEventRepository handles outbox event persistence for PostgreSQL
type PostgreSQLOutboxEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxEventRepository creates a new PostgreSQLOutboxEventRepository
func NewPostgreSQLOutboxEventRepository(db *sql.DB) *PostgreSQLOutboxEventRepository {
	return &PostgreSQLOutboxEventRepository{
		db: db,
	}
}

// Create inserts a new outbox event. It joins the transaction carried by ctx, if any.
func (r *PostgreSQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (id, event_type, status, payload, correlation_id, idempotency_key,
			  attempts, next_attempt_at, last_error, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(ctx, query, event.ID, event.EventType, event.Status, event.Payload,
		event.CorrelationID, event.IdempotencyKey, event.Attempts, event.NextAttemptAt, event.LastError,
		event.CreatedAt, event.UpdatedAt)

	return err
}

// GetDispatchable returns up to limit pending events due at now, oldest first.
func (r *PostgreSQLOutboxEventRepository) GetDispatchable(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, status, payload, correlation_id, idempotency_key, attempts,
			  next_attempt_at, last_error, created_at, updated_at
			  FROM outbox_events
			  WHERE status = $1 AND next_attempt_at <= $2
			  ORDER BY created_at ASC, id ASC
			  LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, domain.OutboxEventStatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return r.scanEvents(rows)
}

// ListByStatus returns events with the given status, oldest first.
func (r *PostgreSQLOutboxEventRepository) ListByStatus(
	ctx context.Context,
	status domain.OutboxEventStatus,
	offset, limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, status, payload, correlation_id, idempotency_key, attempts,
			  next_attempt_at, last_error, created_at, updated_at
			  FROM outbox_events
			  WHERE status = $1
			  ORDER BY created_at ASC, id ASC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return r.scanEvents(rows)
}

// Update stores the delivery state of a pending event. Events that already left the pending
// state are never modified and ErrOutboxEventNotPending is returned.
func (r *PostgreSQLOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = $1, attempts = $2, next_attempt_at = $3, last_error = $4, updated_at = $5
			  WHERE id = $6 AND status = $7`

	result, err := querier.ExecContext(ctx, query, event.Status, event.Attempts, event.NextAttemptAt,
		event.LastError, event.UpdatedAt, event.ID, domain.OutboxEventStatusPending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrOutboxEventNotPending
	}
	return nil
}

func (r *PostgreSQLOutboxEventRepository) scanEvents(rows *sql.Rows) ([]*domain.OutboxEvent, error) {
	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var event domain.OutboxEvent

		err := rows.Scan(&event.ID, &event.EventType, &event.Status, &event.Payload, &event.CorrelationID,
			&event.IdempotencyKey, &event.Attempts, &event.NextAttemptAt, &event.LastError,
			&event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, err
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
