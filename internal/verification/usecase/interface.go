// Package usecase implements the verification workflow: validating and storing trip claims,
// and deciding them. Approval issues credit idempotently and enqueues the wallet and audit
// side effects in the same transaction.
package usecase

import (
	"context"

	"github.com/google/uuid"

	issuanceDomain "github.com/allisson/credits/internal/issuance/domain"
	outboxDomain "github.com/allisson/credits/internal/outbox/domain"
	"github.com/allisson/credits/internal/verification/domain"
)

// VerificationRequestRepository defines verification request persistence operations.
type VerificationRequestRepository interface {
	Create(ctx context.Context, req *domain.VerificationRequest) error
	Get(ctx context.Context, id uuid.UUID) (*domain.VerificationRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.VerificationRequest, error)
	ExistsByChecksum(ctx context.Context, checksum string) (bool, error)
	ExistsByOwnerTrip(ctx context.Context, ownerID uuid.UUID, tripReference string) (bool, error)
	UpdateDecision(ctx context.Context, req *domain.VerificationRequest) error
}

// CreditIssuanceRepository defines credit issuance persistence operations.
type CreditIssuanceRepository interface {
	Create(ctx context.Context, issuance *issuanceDomain.CreditIssuance) error
	GetByIdempotencyKey(ctx context.Context, key string) (*issuanceDomain.CreditIssuance, error)
	GetByVerificationRequestID(ctx context.Context, id uuid.UUID) (*issuanceDomain.CreditIssuance, error)
}

// OutboxEnqueuer stores a side effect for later delivery. It must join the transaction carried
// by ctx.
type OutboxEnqueuer interface {
	Enqueue(
		ctx context.Context,
		payload outboxDomain.Payload,
		correlationID, idempotencyKey string,
	) (*outboxDomain.OutboxEvent, error)
}

// ApproveInput carries an approval command.
type ApproveInput struct {
	ID             uuid.UUID
	VerifierID     uuid.UUID
	Notes          string
	IdempotencyKey string
	CorrelationID  string
}

// RejectInput carries a rejection command.
type RejectInput struct {
	ID         uuid.UUID
	VerifierID uuid.UUID
	Reason     string
}

// ApprovalResult is the outcome of an approval. Replayed is true when the idempotency key had
// already been used for this request and the stored outcome is returned unchanged.
type ApprovalResult struct {
	Request  *domain.VerificationRequest
	Issuance *issuanceDomain.CreditIssuance
	Replayed bool
}

// VerificationUseCase defines the verification business operations.
type VerificationUseCase interface {
	Create(ctx context.Context, input domain.CreateVerificationInput) (*domain.VerificationRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.VerificationRequest, error)
	Approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error)
	Reject(ctx context.Context, input RejectInput) (*domain.VerificationRequest, error)
}
