package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/allisson/credits/internal/audit/domain"
	"github.com/allisson/credits/internal/database"
	apperrors "github.com/allisson/credits/internal/errors"
)

// MySQLAuditLogRepository implements AuditLog persistence for MySQL. UUIDs are stored as
// BINARY(16).
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQL AuditLog repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

// Create inserts an entry. A duplicate (action, payload_hash) returns
// domain.ErrAuditLogAlreadyRecorded.
func (m *MySQLAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	querier := database.GetTx(ctx, m.db)

	id, err := auditLog.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}

	var dataJSON []byte
	if auditLog.Data != nil {
		dataJSON, err = json.Marshal(auditLog.Data)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit log data")
		}
	}

	query := `INSERT INTO audit_logs (id, action, data, payload_hash, correlation_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		auditLog.Action,
		dataJSON,
		auditLog.PayloadHash,
		auditLog.CorrelationID,
		auditLog.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrAuditLogAlreadyRecorded
		}
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}
