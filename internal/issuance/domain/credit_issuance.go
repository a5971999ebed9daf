// Package domain defines the credit issuance entity and the credit formula.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Emission factors in kg CO2e.
var (
	// BaselineFactorPerKm is the emission of an average combustion car per kilometre.
	BaselineFactorPerKm = decimal.RequireFromString("0.192")
	// GridFactorPerKwh is the emission of the electricity grid per kilowatt-hour.
	GridFactorPerKwh = decimal.RequireFromString("0.400")
)

const (
	// QuantityPlaces is the number of decimal places of an issued quantity.
	QuantityPlaces = 2
	// RawQuantityPlaces is the number of decimal places kept for the unrounded quantity.
	RawQuantityPlaces = 6
)

// CreditIssuance is the record of credit granted for one approved verification request.
type CreditIssuance struct {
	ID                    uuid.UUID
	VerificationRequestID uuid.UUID
	OwnerID               uuid.UUID
	RawQuantity           decimal.Decimal
	Quantity              decimal.Decimal
	IdempotencyKey        string
	CorrelationID         *string
	CreatedAt             time.Time
}

// RawCredit returns the avoided emissions for a trip, never below zero.
func RawCredit(distanceKm, energyKwh decimal.Decimal) decimal.Decimal {
	raw := distanceKm.Mul(BaselineFactorPerKm).Sub(energyKwh.Mul(GridFactorPerKwh))
	if raw.IsNegative() {
		return decimal.Zero
	}
	return raw
}

// RoundQuantity applies banker's rounding to QuantityPlaces.
func RoundQuantity(raw decimal.Decimal) decimal.Decimal {
	return raw.RoundBank(QuantityPlaces)
}

// NewCreditIssuance computes the credit for a trip and builds the issuance record.
func NewCreditIssuance(
	verificationRequestID, ownerID uuid.UUID,
	distanceKm, energyKwh decimal.Decimal,
	idempotencyKey, correlationID string,
	now time.Time,
) *CreditIssuance {
	raw := RawCredit(distanceKm, energyKwh).Round(RawQuantityPlaces)
	issuance := &CreditIssuance{
		ID:                    uuid.Must(uuid.NewV7()),
		VerificationRequestID: verificationRequestID,
		OwnerID:               ownerID,
		RawQuantity:           raw,
		Quantity:              RoundQuantity(raw),
		IdempotencyKey:        idempotencyKey,
		CreatedAt:             now,
	}
	if correlationID != "" {
		issuance.CorrelationID = &correlationID
	}
	return issuance
}
