// Package domain defines the verification request entity and its state machine.
//
// A verification request is a submitted EV trip claim. It starts pending and is decided exactly
// once by a verifier: approved (which leads to a credit issuance) or rejected. Both decisions
// are terminal.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a verification request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// VerificationRequest is a submitted trip claim awaiting or holding a decision.
type VerificationRequest struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	TripReference string
	DistanceKm    decimal.Decimal
	EnergyKwh     decimal.Decimal
	Checksum      string
	Status        Status
	VerifierID    *uuid.UUID // Set together with VerifiedAt on approve/reject
	VerifiedAt    *time.Time
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateVerificationInput carries the fields of a new claim. Measurements are pointers so that
// a missing value can be told apart from zero.
type CreateVerificationInput struct {
	OwnerID       uuid.UUID
	TripReference string
	DistanceKm    *decimal.Decimal
	EnergyKwh     *decimal.Decimal
	Checksum      string
}

// NewVerificationRequest builds a pending request from an input that already passed validation.
func NewVerificationRequest(input CreateVerificationInput, now time.Time) *VerificationRequest {
	return &VerificationRequest{
		ID:            uuid.Must(uuid.NewV7()),
		OwnerID:       input.OwnerID,
		TripReference: strings.TrimSpace(input.TripReference),
		DistanceKm:    *input.DistanceKm,
		EnergyKwh:     *input.EnergyKwh,
		Checksum:      strings.TrimSpace(input.Checksum),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Approve moves a pending request to approved.
func (v *VerificationRequest) Approve(verifierID uuid.UUID, notes string, now time.Time) error {
	if v.Status != StatusPending {
		return ErrNotPending
	}
	v.decide(StatusApproved, verifierID, notes, now)
	return nil
}

// Reject moves a pending request to rejected. The reason is stored as the request notes and
// must not be blank.
func (v *VerificationRequest) Reject(verifierID uuid.UUID, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return ErrRejectReasonRequired
	}
	if v.Status != StatusPending {
		return ErrNotPending
	}
	v.decide(StatusRejected, verifierID, reason, now)
	return nil
}

func (v *VerificationRequest) decide(status Status, verifierID uuid.UUID, notes string, now time.Time) {
	v.Status = status
	v.VerifierID = &verifierID
	v.VerifiedAt = &now
	v.UpdatedAt = now
	if notes = strings.TrimSpace(notes); notes != "" {
		v.Notes = &notes
	} else {
		v.Notes = nil
	}
}
