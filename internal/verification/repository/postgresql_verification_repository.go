// Package repository provides data persistence implementations for verification requests.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/credits/internal/database"
	apperrors "github.com/allisson/credits/internal/errors"
	"github.com/allisson/credits/internal/verification/domain"
)

// Unique constraint names shared by both schemas.
const (
	checksumConstraint  = "verification_requests_checksum_key"
	ownerTripConstraint = "verification_requests_owner_id_trip_reference_key"
)

// PostgreSQLVerificationRequestRepository handles verification request persistence for PostgreSQL.
type PostgreSQLVerificationRequestRepository struct {
	db *sql.DB
}

// NewPostgreSQLVerificationRequestRepository creates a new PostgreSQLVerificationRequestRepository.
func NewPostgreSQLVerificationRequestRepository(db *sql.DB) *PostgreSQLVerificationRequestRepository {
	return &PostgreSQLVerificationRequestRepository{db: db}
}

// Create inserts a new request. A unique violation is reported as the validation error the
// validator would have produced for the same duplicate.
func (r *PostgreSQLVerificationRequestRepository) Create(
	ctx context.Context,
	req *domain.VerificationRequest,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO verification_requests (id, owner_id, trip_reference, distance_km, energy_kwh,
			  checksum, status, verifier_id, verified_at, notes, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(ctx, query, req.ID, req.OwnerID, req.TripReference, req.DistanceKm,
		req.EnergyKwh, req.Checksum, req.Status, req.VerifierID, req.VerifiedAt, req.Notes,
		req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return mapCreateError(err)
	}
	return nil
}

// Get returns the request with the given id.
func (r *PostgreSQLVerificationRequestRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*domain.VerificationRequest, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate returns the request with the given id and locks its row until the transaction
// carried by ctx ends.
func (r *PostgreSQLVerificationRequestRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.VerificationRequest, error) {
	return r.get(ctx, id, true)
}

func (r *PostgreSQLVerificationRequestRepository) get(
	ctx context.Context,
	id uuid.UUID,
	forUpdate bool,
) (*domain.VerificationRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, owner_id, trip_reference, distance_km, energy_kwh, checksum, status,
			  verifier_id, verified_at, notes, created_at, updated_at
			  FROM verification_requests WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var req domain.VerificationRequest
	err := querier.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.OwnerID, &req.TripReference,
		&req.DistanceKm, &req.EnergyKwh, &req.Checksum, &req.Status, &req.VerifierID, &req.VerifiedAt,
		&req.Notes, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVerificationRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get verification request")
	}
	return &req, nil
}

// ExistsByChecksum reports whether any request already uses checksum.
func (r *PostgreSQLVerificationRequestRepository) ExistsByChecksum(
	ctx context.Context,
	checksum string,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM verification_requests WHERE checksum = $1)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, checksum).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check checksum")
	}
	return exists, nil
}

// ExistsByOwnerTrip reports whether the owner already submitted tripReference.
func (r *PostgreSQLVerificationRequestRepository) ExistsByOwnerTrip(
	ctx context.Context,
	ownerID uuid.UUID,
	tripReference string,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM verification_requests WHERE owner_id = $1 AND trip_reference = $2)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, ownerID, tripReference).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check trip reference")
	}
	return exists, nil
}

// UpdateDecision stores an approve or reject decision. The row is only changed while it is
// still pending; otherwise domain.ErrNotPending is returned.
func (r *PostgreSQLVerificationRequestRepository) UpdateDecision(
	ctx context.Context,
	req *domain.VerificationRequest,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE verification_requests
			  SET status = $1, verifier_id = $2, verified_at = $3, notes = $4, updated_at = $5
			  WHERE id = $6 AND status = $7`

	result, err := querier.ExecContext(ctx, query, req.Status, req.VerifierID, req.VerifiedAt, req.Notes,
		req.UpdatedAt, req.ID, domain.StatusPending)
	if err != nil {
		return apperrors.Wrap(err, "failed to update verification request")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update verification request")
	}
	if affected == 0 {
		return domain.ErrNotPending
	}
	return nil
}

func mapCreateError(err error) error {
	if !database.IsUniqueViolation(err) {
		return apperrors.Wrap(err, "failed to create verification request")
	}
	switch database.ViolatedConstraint(err) {
	case checksumConstraint:
		return apperrors.NewValidationError(domain.DuplicateChecksumMessage)
	case ownerTripConstraint:
		return apperrors.NewValidationError(domain.DuplicateTripMessage)
	default:
		return apperrors.Wrap(apperrors.ErrConflict, "verification request already exists")
	}
}
