package domain

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/credits/internal/errors"
)

// Payload is the typed content of an outbox event. Implementations are AuditPayload and
// WalletCreditPayload.
type Payload interface {
	EventType() EventType
	validate() error
}

// AuditPayload asks the audit log to record action with data.
type AuditPayload struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
}

// EventType implements Payload.
func (AuditPayload) EventType() EventType { return EventTypeAuditEvent }

func (p AuditPayload) validate() error {
	if strings.TrimSpace(p.Action) == "" {
		return errors.New("action is required")
	}
	return nil
}

// WalletCreditPayload asks the wallet to credit Quantity to OwnerID.
type WalletCreditPayload struct {
	OwnerID        uuid.UUID       `json:"owner_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	IssuanceID     uuid.UUID       `json:"issuance_id"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// EventType implements Payload.
func (WalletCreditPayload) EventType() EventType { return EventTypeWalletCredit }

func (p WalletCreditPayload) validate() error {
	switch {
	case p.OwnerID == uuid.Nil:
		return errors.New("owner_id is required")
	case p.IssuanceID == uuid.Nil:
		return errors.New("issuance_id is required")
	case strings.TrimSpace(p.IdempotencyKey) == "":
		return errors.New("idempotency_key is required")
	case p.Quantity.IsNegative():
		return errors.New("quantity must not be negative")
	}
	return nil
}

// EncodePayload serializes p for storage in an outbox row.
func EncodePayload(p Payload) (string, error) {
	if err := p.validate(); err != nil {
		return "", errors.Wrap(ErrMalformedPayload, err.Error())
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", errors.Wrap(ErrMalformedPayload, err.Error())
	}
	return string(b), nil
}

// DecodePayload parses raw into the variant selected by eventType. Unknown types return
// ErrUnknownEventType and undecodable or incomplete payloads return ErrMalformedPayload.
func DecodePayload(eventType EventType, raw string) (Payload, error) {
	var p Payload
	switch eventType {
	case EventTypeAuditEvent:
		var audit AuditPayload
		if err := json.Unmarshal([]byte(raw), &audit); err != nil {
			return nil, errors.Wrap(ErrMalformedPayload, err.Error())
		}
		p = audit
	case EventTypeWalletCredit:
		var credit WalletCreditPayload
		if err := json.Unmarshal([]byte(raw), &credit); err != nil {
			return nil, errors.Wrap(ErrMalformedPayload, err.Error())
		}
		p = credit
	default:
		return nil, errors.Wrapf(ErrUnknownEventType, "%q", string(eventType))
	}

	if err := p.validate(); err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err.Error())
	}
	return p, nil
}
