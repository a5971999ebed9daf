package domain

import (
	"github.com/allisson/credits/internal/errors"
)

// Issuance errors.
var (
	// ErrCreditIssuanceNotFound indicates no issuance exists for the lookup key.
	ErrCreditIssuanceNotFound = errors.Wrap(errors.ErrNotFound, "credit issuance not found")

	// ErrIssuanceAlreadyExists indicates a concurrent approval already stored an issuance with the
	// same idempotency key or for the same verification request.
	ErrIssuanceAlreadyExists = errors.Wrap(errors.ErrConflict, "credit issuance already exists")
)
