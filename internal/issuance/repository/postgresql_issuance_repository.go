// Package repository provides data persistence implementations for credit issuances.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/credits/internal/database"
	apperrors "github.com/allisson/credits/internal/errors"
	"github.com/allisson/credits/internal/issuance/domain"
)

// PostgreSQLCreditIssuanceRepository handles credit issuance persistence for PostgreSQL.
type PostgreSQLCreditIssuanceRepository struct {
	db *sql.DB
}

// NewPostgreSQLCreditIssuanceRepository creates a new PostgreSQLCreditIssuanceRepository.
func NewPostgreSQLCreditIssuanceRepository(db *sql.DB) *PostgreSQLCreditIssuanceRepository {
	return &PostgreSQLCreditIssuanceRepository{db: db}
}

// Create inserts an issuance. A second issuance for the same idempotency key or the same
// verification request returns domain.ErrIssuanceAlreadyExists.
func (r *PostgreSQLCreditIssuanceRepository) Create(ctx context.Context, issuance *domain.CreditIssuance) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO credit_issuances (id, verification_request_id, owner_id, raw_quantity, quantity,
			  idempotency_key, correlation_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(ctx, query, issuance.ID, issuance.VerificationRequestID, issuance.OwnerID,
		issuance.RawQuantity, issuance.Quantity, issuance.IdempotencyKey, issuance.CorrelationID,
		issuance.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrIssuanceAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create credit issuance")
	}
	return nil
}

// GetByIdempotencyKey returns the issuance stored under key.
func (r *PostgreSQLCreditIssuanceRepository) GetByIdempotencyKey(
	ctx context.Context,
	key string,
) (*domain.CreditIssuance, error) {
	query := `SELECT id, verification_request_id, owner_id, raw_quantity, quantity, idempotency_key,
			  correlation_id, created_at
			  FROM credit_issuances WHERE idempotency_key = $1`

	return r.getOne(ctx, query, key)
}

// GetByVerificationRequestID returns the issuance granted for a verification request.
func (r *PostgreSQLCreditIssuanceRepository) GetByVerificationRequestID(
	ctx context.Context,
	verificationRequestID uuid.UUID,
) (*domain.CreditIssuance, error) {
	query := `SELECT id, verification_request_id, owner_id, raw_quantity, quantity, idempotency_key,
			  correlation_id, created_at
			  FROM credit_issuances WHERE verification_request_id = $1`

	return r.getOne(ctx, query, verificationRequestID)
}

func (r *PostgreSQLCreditIssuanceRepository) getOne(
	ctx context.Context,
	query string,
	arg any,
) (*domain.CreditIssuance, error) {
	querier := database.GetTx(ctx, r.db)

	var issuance domain.CreditIssuance
	err := querier.QueryRowContext(ctx, query, arg).Scan(&issuance.ID, &issuance.VerificationRequestID,
		&issuance.OwnerID, &issuance.RawQuantity, &issuance.Quantity, &issuance.IdempotencyKey,
		&issuance.CorrelationID, &issuance.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCreditIssuanceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credit issuance")
	}
	return &issuance, nil
}
