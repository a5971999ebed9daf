package validation

import (
	"testing"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/credits/internal/errors"
)

func TestStringRules(t *testing.T) {
	tests := []struct {
		name    string
		rule    validation.Rule
		input   string
		wantErr bool
	}{
		{name: "NotBlank/value", rule: NotBlank, input: "approve-1"},
		{name: "NotBlank/empty is left to Required", rule: NotBlank, input: ""},
		{name: "NotBlank/spaces", rule: NotBlank, input: "   ", wantErr: true},
		{name: "NotBlank/tabs and newlines", rule: NotBlank, input: "\t\n", wantErr: true},
		{name: "Printable/ascii", rule: Printable, input: "key-01_ABC.~"},
		{name: "Printable/control char", rule: Printable, input: "key\x00", wantErr: true},
		{name: "Printable/non ascii", rule: Printable, input: "clé", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(validation.Errors{"owner_id": validation.ErrRequired})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "owner_id: cannot be blank")
}

func TestPositiveDecimal(t *testing.T) {
	positive := decimal.RequireFromString("0.01")
	zero := decimal.Zero
	negative := decimal.RequireFromString("-3")

	tests := []struct {
		name      string
		value     any
		shouldErr bool
	}{
		{name: "positive value", value: positive, shouldErr: false},
		{name: "positive pointer", value: &positive, shouldErr: false},
		{name: "zero", value: zero, shouldErr: true},
		{name: "negative pointer", value: &negative, shouldErr: true},
		{name: "nil pointer left to required", value: (*decimal.Decimal)(nil), shouldErr: false},
		{name: "wrong type", value: 12.5, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PositiveDecimal.Validate(tt.value)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecimalBounds(t *testing.T) {
	limit := decimal.New(1, 12)
	tiny := decimal.RequireFromString("0.0000001")

	tests := []struct {
		name      string
		rule      validation.Rule
		value     any
		shouldErr bool
	}{
		{name: "places/six digits", rule: MaxDecimalPlaces(6), value: decimal.RequireFromString("0.000001")},
		{name: "places/trailing zeros", rule: MaxDecimalPlaces(6), value: decimal.RequireFromString("1.500000000")},
		{name: "places/seven digits", rule: MaxDecimalPlaces(6), value: &tiny, shouldErr: true},
		{name: "places/nil pointer", rule: MaxDecimalPlaces(6), value: (*decimal.Decimal)(nil)},
		{name: "places/wrong type", rule: MaxDecimalPlaces(6), value: "1.5", shouldErr: true},
		{name: "max/below", rule: DecimalLessThan(limit), value: decimal.RequireFromString("999999999999.999999")},
		{name: "max/equal", rule: DecimalLessThan(limit), value: limit, shouldErr: true},
		{name: "max/above", rule: DecimalLessThan(limit), value: decimal.New(5, 15), shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, tt.rule)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequiredUUID(t *testing.T) {
	assert.NoError(t, RequiredUUID.Validate(uuid.New()))
	assert.Error(t, RequiredUUID.Validate(uuid.Nil))
	assert.Error(t, RequiredUUID.Validate("not-a-uuid"))
}

func TestUUIDString(t *testing.T) {
	assert.NoError(t, UUIDString.Validate(uuid.NewString()))
	assert.NoError(t, UUIDString.Validate(""))
	assert.Error(t, UUIDString.Validate("not-a-uuid"))
}

func TestIdempotencyKey(t *testing.T) {
	assert.NoError(t, validation.Validate("approve-2024-01-01T10:00Z", IdempotencyKey...))
	assert.Error(t, validation.Validate("   ", IdempotencyKey...))
	assert.Error(t, validation.Validate("key\twith-tab", IdempotencyKey...))
	assert.Error(t, validation.Validate("chave-é", IdempotencyKey...))

	long := make([]byte, MaxIdempotencyKeyLength+1)
	for i := range long {
		long[i] = 'k'
	}
	assert.Error(t, validation.Validate(string(long), IdempotencyKey...))
}

func TestViolations(t *testing.T) {
	distance := decimal.RequireFromString("-1")

	violations := Violations(
		Check("owner_id", uuid.Nil, RequiredUUID),
		Check("trip_reference", "trip-1", validation.Required, NotBlank),
		Check("checksum", "", validation.Required),
		Check("distance_km", &distance, validation.Required, PositiveDecimal),
		Check("energy_kwh", (*decimal.Decimal)(nil), validation.Required, PositiveDecimal),
	)

	assert.Equal(t, []string{
		"owner_id: cannot be blank",
		"checksum: cannot be blank",
		"distance_km: must be greater than zero",
		"energy_kwh: cannot be blank",
	}, violations)

	assert.Empty(t, Violations(Check("checksum", "abc", validation.Required)))
}
