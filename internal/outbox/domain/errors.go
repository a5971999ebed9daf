package domain

import (
	"github.com/allisson/credits/internal/errors"
)

// Outbox errors. Both are permanent: retrying the same event cannot succeed.
var (
	// ErrUnknownEventType indicates an event type no handler exists for.
	ErrUnknownEventType = errors.Wrap(errors.ErrPermanentDelivery, "unknown event type")

	// ErrMalformedPayload indicates a payload that cannot be decoded into its variant.
	ErrMalformedPayload = errors.Wrap(errors.ErrPermanentDelivery, "malformed payload")
)

// ErrOutboxEventNotPending indicates an update to an event that already left the pending state.
var ErrOutboxEventNotPending = errors.Wrap(errors.ErrConflict, "outbox event is not pending")
