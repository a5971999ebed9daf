package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	apperrors "github.com/allisson/credits/internal/errors"
	customValidation "github.com/allisson/credits/internal/validation"
	"github.com/allisson/credits/internal/verification/domain"
)

const (
	maxTextLength = 255

	// measurementPlaces matches the scale of the measurement columns.
	measurementPlaces = 6
)

// maxMeasurement is the first value that no longer fits a DECIMAL(18,6) column.
var maxMeasurement = decimal.New(1, 12)

// Validator checks a new verification request before it is stored.
type Validator struct {
	repo VerificationRequestRepository
}

// NewValidator creates a Validator that looks up duplicates in repo.
func NewValidator(repo VerificationRequestRepository) *Validator {
	return &Validator{repo: repo}
}

// Validate returns nil or a *errors.ValidationError listing every violation in a fixed order:
// missing fields, measurements that are not positive or do not fit the column, duplicate
// checksum, duplicate trip for owner.
// Lookup failures are returned as they are.
func (v *Validator) Validate(ctx context.Context, input *domain.CreateVerificationInput) error {
	text := []validation.Rule{validation.Required, customValidation.NotBlank, validation.Length(1, maxTextLength)}
	measurement := []validation.Rule{
		customValidation.PositiveDecimal,
		customValidation.MaxDecimalPlaces(measurementPlaces),
		customValidation.DecimalLessThan(maxMeasurement),
	}

	violations := customValidation.Violations(
		customValidation.Check("owner_id", input.OwnerID, customValidation.RequiredUUID),
		customValidation.Check("trip_reference", input.TripReference, text...),
		customValidation.Check("checksum", input.Checksum, text...),
		customValidation.Check("distance_km", input.DistanceKm, validation.NotNil),
		customValidation.Check("energy_kwh", input.EnergyKwh, validation.NotNil),
	)
	violations = append(violations, customValidation.Violations(
		customValidation.Check("distance_km", input.DistanceKm, measurement...),
		customValidation.Check("energy_kwh", input.EnergyKwh, measurement...),
	)...)

	checksum := strings.TrimSpace(input.Checksum)
	if checksum != "" {
		exists, err := v.repo.ExistsByChecksum(ctx, checksum)
		if err != nil {
			return err
		}
		if exists {
			violations = append(violations, domain.DuplicateChecksumMessage)
		}
	}

	trip := strings.TrimSpace(input.TripReference)
	if input.OwnerID != uuid.Nil && trip != "" {
		exists, err := v.repo.ExistsByOwnerTrip(ctx, input.OwnerID, trip)
		if err != nil {
			return err
		}
		if exists {
			violations = append(violations, domain.DuplicateTripMessage)
		}
	}

	if len(violations) > 0 {
		return apperrors.NewValidationError(violations...)
	}
	return nil
}
