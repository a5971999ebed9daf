// Package domain defines the audit log entry recorded for verification decisions.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/credits/internal/errors"
)

// AuditLog is one recorded action. Entries are unique on (Action, PayloadHash), which makes
// recording idempotent under redelivery.
type AuditLog struct {
	ID            uuid.UUID
	Action        string
	Data          map[string]any
	PayloadHash   string
	CorrelationID *string
	CreatedAt     time.Time
}

// ErrAuditLogAlreadyRecorded indicates an entry with the same action and payload exists.
var ErrAuditLogAlreadyRecorded = errors.Wrap(errors.ErrConflict, "audit log already recorded")

// PayloadHash returns the hex SHA-256 of action and the JSON encoding of data. encoding/json
// sorts map keys, so equal data always hashes the same.
func PayloadHash(action string, data map[string]any) (string, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode audit data")
	}
	sum := sha256.New()
	sum.Write([]byte(action))
	sum.Write([]byte{0})
	sum.Write(encoded)
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// NewAuditLog builds an entry with its payload hash.
func NewAuditLog(action string, data map[string]any, correlationID string, now time.Time) (*AuditLog, error) {
	hash, err := PayloadHash(action, data)
	if err != nil {
		return nil, err
	}
	entry := &AuditLog{
		ID:          uuid.Must(uuid.NewV7()),
		Action:      action,
		Data:        data,
		PayloadHash: hash,
		CreatedAt:   now,
	}
	if correlationID != "" {
		entry.CorrelationID = &correlationID
	}
	return entry, nil
}
