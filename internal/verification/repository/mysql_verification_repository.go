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

// MySQLVerificationRequestRepository handles verification request persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLVerificationRequestRepository struct {
	db *sql.DB
}

// NewMySQLVerificationRequestRepository creates a new MySQLVerificationRequestRepository.
func NewMySQLVerificationRequestRepository(db *sql.DB) *MySQLVerificationRequestRepository {
	return &MySQLVerificationRequestRepository{db: db}
}

// Create inserts a new request. A unique violation is reported as the validation error the
// validator would have produced for the same duplicate.
func (r *MySQLVerificationRequestRepository) Create(ctx context.Context, req *domain.VerificationRequest) error {
	querier := database.GetTx(ctx, r.db)

	id, err := req.ID.MarshalBinary()
	if err != nil {
		return err
	}
	ownerID, err := req.OwnerID.MarshalBinary()
	if err != nil {
		return err
	}
	verifierID, err := nullableUUID(req.VerifierID)
	if err != nil {
		return err
	}

	query := `INSERT INTO verification_requests (id, owner_id, trip_reference, distance_km, energy_kwh,
			  checksum, status, verifier_id, verified_at, notes, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, ownerID, req.TripReference, req.DistanceKm, req.EnergyKwh,
		req.Checksum, req.Status, verifierID, req.VerifiedAt, req.Notes, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return mapCreateError(err)
	}
	return nil
}

// Get returns the request with the given id.
func (r *MySQLVerificationRequestRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*domain.VerificationRequest, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate returns the request with the given id and locks its row until the transaction
// carried by ctx ends.
func (r *MySQLVerificationRequestRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.VerificationRequest, error) {
	return r.get(ctx, id, true)
}

func (r *MySQLVerificationRequestRepository) get(
	ctx context.Context,
	id uuid.UUID,
	forUpdate bool,
) (*domain.VerificationRequest, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT id, owner_id, trip_reference, distance_km, energy_kwh, checksum, status,
			  verifier_id, verified_at, notes, created_at, updated_at
			  FROM verification_requests WHERE id = ?`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var req domain.VerificationRequest
	var rowID, ownerID, verifierID []byte
	err = querier.QueryRowContext(ctx, query, idBytes).Scan(&rowID, &ownerID, &req.TripReference,
		&req.DistanceKm, &req.EnergyKwh, &req.Checksum, &req.Status, &verifierID, &req.VerifiedAt,
		&req.Notes, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVerificationRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get verification request")
	}

	if err := req.ID.UnmarshalBinary(rowID); err != nil {
		return nil, err
	}
	if err := req.OwnerID.UnmarshalBinary(ownerID); err != nil {
		return nil, err
	}
	if verifierID != nil {
		var v uuid.UUID
		if err := v.UnmarshalBinary(verifierID); err != nil {
			return nil, err
		}
		req.VerifierID = &v
	}
	return &req, nil
}

// ExistsByChecksum reports whether any request already uses checksum.
func (r *MySQLVerificationRequestRepository) ExistsByChecksum(ctx context.Context, checksum string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM verification_requests WHERE checksum = ?)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, checksum).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check checksum")
	}
	return exists, nil
}

// ExistsByOwnerTrip reports whether the owner already submitted tripReference.
func (r *MySQLVerificationRequestRepository) ExistsByOwnerTrip(
	ctx context.Context,
	ownerID uuid.UUID,
	tripReference string,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	ownerBytes, err := ownerID.MarshalBinary()
	if err != nil {
		return false, err
	}

	query := `SELECT EXISTS (SELECT 1 FROM verification_requests WHERE owner_id = ? AND trip_reference = ?)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, ownerBytes, tripReference).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check trip reference")
	}
	return exists, nil
}

// UpdateDecision stores an approve or reject decision. The row is only changed while it is
// still pending; otherwise domain.ErrNotPending is returned.
func (r *MySQLVerificationRequestRepository) UpdateDecision(
	ctx context.Context,
	req *domain.VerificationRequest,
) error {
	querier := database.GetTx(ctx, r.db)

	id, err := req.ID.MarshalBinary()
	if err != nil {
		return err
	}
	verifierID, err := nullableUUID(req.VerifierID)
	if err != nil {
		return err
	}

	query := `UPDATE verification_requests
			  SET status = ?, verifier_id = ?, verified_at = ?, notes = ?, updated_at = ?
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query, req.Status, verifierID, req.VerifiedAt, req.Notes,
		req.UpdatedAt, id, domain.StatusPending)
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

func nullableUUID(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}
