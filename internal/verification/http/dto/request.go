// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	customValidation "github.com/allisson/credits/internal/validation"
	"github.com/allisson/credits/internal/verification/domain"
)

// CreateVerificationRequest contains the fields of a submitted trip claim. Measurements accept
// JSON numbers or strings.
type CreateVerificationRequest struct {
	OwnerID       string           `json:"owner_id"`
	TripReference string           `json:"trip_reference"`
	DistanceKm    *decimal.Decimal `json:"distance_km"`
	EnergyKwh     *decimal.Decimal `json:"energy_kwh"`
	Checksum      string           `json:"checksum"`
}

// Validate checks field formats. Presence and business rules are checked by the use case so
// that violations are reported in a single ordered list.
func (r *CreateVerificationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OwnerID, customValidation.UUIDString),
	)
}

// ToDomain converts the request to a domain input. Call Validate first.
func (r *CreateVerificationRequest) ToDomain() domain.CreateVerificationInput {
	var ownerID uuid.UUID
	if r.OwnerID != "" {
		ownerID = uuid.MustParse(r.OwnerID)
	}
	return domain.CreateVerificationInput{
		OwnerID:       ownerID,
		TripReference: r.TripReference,
		DistanceKm:    r.DistanceKm,
		EnergyKwh:     r.EnergyKwh,
		Checksum:      r.Checksum,
	}
}

// ApproveVerificationRequest contains the parameters for approving a request. The idempotency
// key travels in the Idempotency-Key header.
type ApproveVerificationRequest struct {
	VerifierID string `json:"verifier_id"`
	Notes      string `json:"notes"`
}

// Validate checks if the approve request is valid.
func (r *ApproveVerificationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.VerifierID, validation.Required, customValidation.UUIDString),
		validation.Field(&r.Notes, validation.Length(0, 2000)),
	)
}

// RejectVerificationRequest contains the parameters for rejecting a request.
type RejectVerificationRequest struct {
	VerifierID string `json:"verifier_id"`
	Reason     string `json:"reason"`
}

// Validate checks if the reject request is valid. A blank reason is reported by the use case.
func (r *RejectVerificationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.VerifierID, validation.Required, customValidation.UUIDString),
		validation.Field(&r.Reason, validation.Length(0, 2000)),
	)
}
