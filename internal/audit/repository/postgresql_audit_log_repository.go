// Package repository provides data persistence implementations for audit log entries.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/allisson/credits/internal/audit/domain"
	"github.com/allisson/credits/internal/database"
	apperrors "github.com/allisson/credits/internal/errors"
)

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Create inserts an entry. A duplicate (action, payload_hash) returns
// domain.ErrAuditLogAlreadyRecorded.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	var dataJSON []byte
	var err error

	// Handle nil data as NULL
	if auditLog.Data != nil {
		dataJSON, err = json.Marshal(auditLog.Data)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit log data")
		}
	}

	query := `INSERT INTO audit_logs (id, action, data, payload_hash, correlation_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = querier.ExecContext(
		ctx,
		query,
		auditLog.ID,
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
