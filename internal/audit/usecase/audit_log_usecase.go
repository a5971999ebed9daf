// Package usecase records audit entries delivered by the outbox dispatcher.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/credits/internal/audit/domain"
	"github.com/allisson/credits/internal/correlation"
	apperrors "github.com/allisson/credits/internal/errors"
)

// AuditLogRepository defines audit log persistence.
type AuditLogRepository interface {
	Create(ctx context.Context, auditLog *domain.AuditLog) error
}

// AuditLogUseCase records audit entries idempotently.
type AuditLogUseCase struct {
	repo   AuditLogRepository
	logger *slog.Logger
}

// NewAuditLogUseCase creates a new AuditLogUseCase.
func NewAuditLogUseCase(repo AuditLogRepository, logger *slog.Logger) *AuditLogUseCase {
	return &AuditLogUseCase{repo: repo, logger: logger}
}

// Record stores action with data. Recording an identical entry again succeeds without writing.
func (a *AuditLogUseCase) Record(ctx context.Context, action string, data map[string]any) error {
	entry, err := domain.NewAuditLog(action, data, correlation.FromContext(ctx), time.Now().UTC())
	if err != nil {
		return apperrors.Permanent(err)
	}

	if err := a.repo.Create(ctx, entry); err != nil {
		if apperrors.Is(err, domain.ErrAuditLogAlreadyRecorded) {
			a.logger.DebugContext(ctx, "audit log already recorded",
				slog.String("action", action),
				slog.String("payload_hash", entry.PayloadHash),
			)
			return nil
		}
		return apperrors.Wrap(err, "failed to record audit log")
	}

	return nil
}
