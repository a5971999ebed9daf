package domain

import (
	"github.com/allisson/credits/internal/errors"
)

// Verification errors.
var (
	// ErrVerificationRequestNotFound indicates no request exists with the given ID.
	ErrVerificationRequestNotFound = errors.Wrap(errors.ErrNotFound, "verification request not found")

	// ErrNotPending indicates the request was already approved or rejected.
	ErrNotPending = errors.Wrap(errors.ErrConflict, "verification request is not pending")

	// ErrIdempotencyKeyRequired indicates an approval was attempted without an idempotency key.
	ErrIdempotencyKeyRequired = errors.Wrap(errors.ErrConflict, "idempotency key is required")

	// ErrIdempotencyKeyReused indicates the idempotency key already issued credit for another request.
	ErrIdempotencyKeyReused = errors.Wrap(errors.ErrConflict, "idempotency key already used for another request")

	// ErrRejectReasonRequired indicates a rejection without a reason.
	ErrRejectReasonRequired = errors.NewValidationError("reason: must not be blank")
)

// Messages used by the validator and by the repositories when a unique constraint fires.
const (
	DuplicateChecksumMessage = "checksum: duplicate checksum"
	DuplicateTripMessage     = "trip_reference: duplicate trip for owner"
)
