package dto

import (
	"time"

	"github.com/shopspring/decimal"

	issuanceDomain "github.com/allisson/credits/internal/issuance/domain"
	"github.com/allisson/credits/internal/verification/domain"
	verificationUseCase "github.com/allisson/credits/internal/verification/usecase"
)

// VerificationResponse represents a verification request in API responses.
type VerificationResponse struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	TripReference string          `json:"trip_reference"`
	DistanceKm    decimal.Decimal `json:"distance_km"`
	EnergyKwh     decimal.Decimal `json:"energy_kwh"`
	Checksum      string          `json:"checksum"`
	Status        string          `json:"status"`
	VerifierID    *string         `json:"verifier_id,omitempty"`
	VerifiedAt    *time.Time      `json:"verified_at,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IssuanceResponse represents a credit issuance in API responses.
type IssuanceResponse struct {
	ID                    string    `json:"id"`
	VerificationRequestID string    `json:"verification_request_id"`
	OwnerID               string    `json:"owner_id"`
	RawQuantity           string    `json:"raw_quantity"`
	Quantity              string    `json:"quantity"`
	IdempotencyKey        string    `json:"idempotency_key"`
	CorrelationID         *string   `json:"correlation_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// ApprovalResponse is returned by the approve endpoint. Replayed is true when the idempotency
// key had already been used and the stored outcome is returned.
type ApprovalResponse struct {
	Verification VerificationResponse `json:"verification"`
	Issuance     IssuanceResponse     `json:"issuance"`
	Replayed     bool                 `json:"replayed"`
}

// MapVerificationToResponse converts a domain verification request to an API response.
func MapVerificationToResponse(req *domain.VerificationRequest) VerificationResponse {
	resp := VerificationResponse{
		ID:            req.ID.String(),
		OwnerID:       req.OwnerID.String(),
		TripReference: req.TripReference,
		DistanceKm:    req.DistanceKm,
		EnergyKwh:     req.EnergyKwh,
		Checksum:      req.Checksum,
		Status:        string(req.Status),
		VerifiedAt:    req.VerifiedAt,
		Notes:         req.Notes,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
	if req.VerifierID != nil {
		verifierID := req.VerifierID.String()
		resp.VerifierID = &verifierID
	}
	return resp
}

// MapIssuanceToResponse converts a domain credit issuance to an API response. Quantities are
// rendered as fixed-point strings.
func MapIssuanceToResponse(issuance *issuanceDomain.CreditIssuance) IssuanceResponse {
	return IssuanceResponse{
		ID:                    issuance.ID.String(),
		VerificationRequestID: issuance.VerificationRequestID.String(),
		OwnerID:               issuance.OwnerID.String(),
		RawQuantity:           issuance.RawQuantity.StringFixed(issuanceDomain.RawQuantityPlaces),
		Quantity:              issuance.Quantity.StringFixed(issuanceDomain.QuantityPlaces),
		IdempotencyKey:        issuance.IdempotencyKey,
		CorrelationID:         issuance.CorrelationID,
		CreatedAt:             issuance.CreatedAt,
	}
}

// MapApprovalToResponse converts an approval result to an API response.
func MapApprovalToResponse(result *verificationUseCase.ApprovalResult) ApprovalResponse {
	return ApprovalResponse{
		Verification: MapVerificationToResponse(result.Request),
		Issuance:     MapIssuanceToResponse(result.Issuance),
		Replayed:     result.Replayed,
	}
}
