// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	apperrors "github.com/allisson/credits/internal/errors"
)

// MaxIdempotencyKeyLength is the longest Idempotency-Key accepted.
const MaxIdempotencyKeyLength = 255

// WrapValidationError turns a request validation error into ErrInvalidInput so handlers map
// it to 422.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Field is one named value checked against a list of rules.
type Field struct {
	Name  string
	Value any
	Rules []validation.Rule
}

// Check builds a Field.
func Check(name string, value any, rules ...validation.Rule) Field {
	return Field{Name: name, Value: value, Rules: rules}
}

// Violations validates fields in the given order and returns one "name: message" entry for
// each failing field. Unlike ValidateStruct the result keeps the declaration order.
func Violations(fields ...Field) []string {
	var violations []string
	for _, f := range fields {
		if err := validation.Validate(f.Value, f.Rules...); err != nil {
			violations = append(violations, f.Name+": "+err.Error())
		}
	}
	return violations
}

// NotBlank rejects strings that are empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Printable validates that a string holds only printable ASCII characters.
var Printable = validation.NewStringRuleWithError(
	func(s string) bool {
		for _, r := range s {
			if r > unicode.MaxASCII || !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	},
	validation.NewError("validation_printable", "must contain only printable ASCII characters"),
)

// decimalValue unwraps a decimal.Decimal or a pointer to one. skip is true for nil pointers,
// which are left to Required/NotNil.
func decimalValue(value any) (d decimal.Decimal, skip bool, err error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, false, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Decimal{}, true, nil
		}
		return *v, false, nil
	default:
		return decimal.Decimal{}, false, validation.NewError("validation_decimal_type", "must be a decimal number")
	}
}

// PositiveDecimal validates that a decimal.Decimal (or a non-nil pointer to one) is
// strictly greater than zero. Nil pointers are left to Required.
var PositiveDecimal = validation.By(func(value interface{}) error {
	d, skip, err := decimalValue(value)
	if skip || err != nil {
		return err
	}
	if !d.IsPositive() {
		return validation.NewError("validation_positive", "must be greater than zero")
	}
	return nil
})

// MaxDecimalPlaces rejects decimals that cannot be stored with places fractional digits
// without rounding. Trailing zeros are fine.
func MaxDecimalPlaces(places int32) validation.Rule {
	return validation.By(func(value interface{}) error {
		d, skip, err := decimalValue(value)
		if skip || err != nil {
			return err
		}
		if !d.Equal(d.Truncate(places)) {
			return validation.NewError("validation_decimal_places",
				fmt.Sprintf("must have at most %d decimal places", places))
		}
		return nil
	})
}

// DecimalLessThan rejects decimals greater than or equal to limit.
func DecimalLessThan(limit decimal.Decimal) validation.Rule {
	return validation.By(func(value interface{}) error {
		d, skip, err := decimalValue(value)
		if skip || err != nil {
			return err
		}
		if d.GreaterThanOrEqual(limit) {
			return validation.NewError("validation_decimal_max", "must be less than "+limit.String())
		}
		return nil
	})
}

// RequiredUUID validates that a uuid.UUID is not the nil UUID.
var RequiredUUID = validation.By(func(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok {
		return validation.NewError("validation_uuid_type", "must be a UUID")
	}
	if id == uuid.Nil {
		return validation.ErrRequired
	}
	return nil
})

// UUIDString validates that a string parses as a UUID. Empty strings are left to Required.
var UUIDString = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := uuid.Parse(s)
		return err == nil
	},
	validation.NewError("validation_uuid", "must be a valid UUID"),
)

// IdempotencyKey groups the rules applied to an Idempotency-Key value.
var IdempotencyKey = []validation.Rule{
	NotBlank,
	validation.Length(1, MaxIdempotencyKeyLength),
	Printable,
}
