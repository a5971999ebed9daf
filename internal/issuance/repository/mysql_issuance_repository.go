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

// MySQLCreditIssuanceRepository handles credit issuance persistence for MySQL. UUIDs are
// stored as BINARY(16).
type MySQLCreditIssuanceRepository struct {
	db *sql.DB
}

// NewMySQLCreditIssuanceRepository creates a new MySQLCreditIssuanceRepository.
func NewMySQLCreditIssuanceRepository(db *sql.DB) *MySQLCreditIssuanceRepository {
	return &MySQLCreditIssuanceRepository{db: db}
}

// Create inserts an issuance. A second issuance for the same idempotency key or the same
// verification request returns domain.ErrIssuanceAlreadyExists.
func (r *MySQLCreditIssuanceRepository) Create(ctx context.Context, issuance *domain.CreditIssuance) error {
	querier := database.GetTx(ctx, r.db)

	id, err := issuance.ID.MarshalBinary()
	if err != nil {
		return err
	}
	requestID, err := issuance.VerificationRequestID.MarshalBinary()
	if err != nil {
		return err
	}
	ownerID, err := issuance.OwnerID.MarshalBinary()
	if err != nil {
		return err
	}

	query := `INSERT INTO credit_issuances (id, verification_request_id, owner_id, raw_quantity, quantity,
			  idempotency_key, correlation_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, requestID, ownerID, issuance.RawQuantity, issuance.Quantity,
		issuance.IdempotencyKey, issuance.CorrelationID, issuance.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrIssuanceAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create credit issuance")
	}
	return nil
}

// GetByIdempotencyKey returns the issuance stored under key.
func (r *MySQLCreditIssuanceRepository) GetByIdempotencyKey(
	ctx context.Context,
	key string,
) (*domain.CreditIssuance, error) {
	query := `SELECT id, verification_request_id, owner_id, raw_quantity, quantity, idempotency_key,
			  correlation_id, created_at
			  FROM credit_issuances WHERE idempotency_key = ?`

	return r.getOne(ctx, query, key)
}

// GetByVerificationRequestID returns the issuance granted for a verification request.
func (r *MySQLCreditIssuanceRepository) GetByVerificationRequestID(
	ctx context.Context,
	verificationRequestID uuid.UUID,
) (*domain.CreditIssuance, error) {
	requestID, err := verificationRequestID.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT id, verification_request_id, owner_id, raw_quantity, quantity, idempotency_key,
			  correlation_id, created_at
			  FROM credit_issuances WHERE verification_request_id = ?`

	return r.getOne(ctx, query, requestID)
}

func (r *MySQLCreditIssuanceRepository) getOne(
	ctx context.Context,
	query string,
	arg any,
) (*domain.CreditIssuance, error) {
	querier := database.GetTx(ctx, r.db)

	var issuance domain.CreditIssuance
	var id, requestID, ownerID []byte
	err := querier.QueryRowContext(ctx, query, arg).Scan(&id, &requestID, &ownerID, &issuance.RawQuantity,
		&issuance.Quantity, &issuance.IdempotencyKey, &issuance.CorrelationID, &issuance.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCreditIssuanceNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credit issuance")
	}

	if err := issuance.ID.UnmarshalBinary(id); err != nil {
		return nil, err
	}
	if err := issuance.VerificationRequestID.UnmarshalBinary(requestID); err != nil {
		return nil, err
	}
	if err := issuance.OwnerID.UnmarshalBinary(ownerID); err != nil {
		return nil, err
	}
	return &issuance, nil
}
