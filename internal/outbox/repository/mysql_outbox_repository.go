package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/credits/internal/database"
	"github.com/allisson/credits/internal/outbox/domain"
)

// MySQLOutboxEventRepository handles outbox event persistence for MySQL
type MySQLOutboxEventRepository struct {
	db *sql.DB
}

// NewMySQLOutboxEventRepository creates a new MySQLOutboxEventRepository
func NewMySQLOutboxEventRepository(db *sql.DB) *MySQLOutboxEventRepository {
	return &MySQLOutboxEventRepository{
		db: db,
	}
}

// Create inserts a new outbox event. It joins the transaction carried by ctx, if any.
func (r *MySQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (id, event_type, status, payload, correlation_id, idempotency_key,
			  attempts, next_attempt_at, last_error, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, event.EventType, event.Status, event.Payload,
		event.CorrelationID, event.IdempotencyKey, event.Attempts, event.NextAttemptAt, event.LastError,
		event.CreatedAt, event.UpdatedAt)

	return err
}

// GetDispatchable returns up to limit pending events due at now, oldest first.
func (r *MySQLOutboxEventRepository) GetDispatchable(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, status, payload, correlation_id, idempotency_key, attempts,
			  next_attempt_at, last_error, created_at, updated_at
			  FROM outbox_events
			  WHERE status = ? AND next_attempt_at <= ?
			  ORDER BY created_at ASC, id ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, domain.OutboxEventStatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return r.scanEvents(rows)
}

// ListByStatus returns events with the given status, oldest first.
func (r *MySQLOutboxEventRepository) ListByStatus(
	ctx context.Context,
	status domain.OutboxEventStatus,
	offset, limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, status, payload, correlation_id, idempotency_key, attempts,
			  next_attempt_at, last_error, created_at, updated_at
			  FROM outbox_events
			  WHERE status = ?
			  ORDER BY created_at ASC, id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return r.scanEvents(rows)
}

// Update stores the delivery state of a pending event. Events that already left the pending
// state are never modified and ErrOutboxEventNotPending is returned.
func (r *MySQLOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = ?, attempts = ?, next_attempt_at = ?, last_error = ?, updated_at = ?
			  WHERE id = ? AND status = ?`

	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return err
	}

	result, err := querier.ExecContext(ctx, query, event.Status, event.Attempts, event.NextAttemptAt,
		event.LastError, event.UpdatedAt, idBytes, domain.OutboxEventStatusPending)
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

func (r *MySQLOutboxEventRepository) scanEvents(rows *sql.Rows) ([]*domain.OutboxEvent, error) {
	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var event domain.OutboxEvent
		var idBytes []byte

		err := rows.Scan(&idBytes, &event.EventType, &event.Status, &event.Payload, &event.CorrelationID,
			&event.IdempotencyKey, &event.Attempts, &event.NextAttemptAt, &event.LastError,
			&event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, err
		}

		// Convert bytes back to UUID
		if err := event.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, err
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
