package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/credits/internal/metrics"
	"github.com/allisson/credits/internal/verification/domain"
)

const metricsDomain = "verification"

// verificationUseCaseWithMetrics decorates VerificationUseCase with metrics instrumentation.
type verificationUseCaseWithMetrics struct {
	next    VerificationUseCase
	metrics metrics.BusinessMetrics
}

// NewVerificationUseCaseWithMetrics wraps a VerificationUseCase with metrics recording.
func NewVerificationUseCaseWithMetrics(useCase VerificationUseCase, m metrics.BusinessMetrics) VerificationUseCase {
	return &verificationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for verification request creation.
func (v *verificationUseCaseWithMetrics) Create(
	ctx context.Context,
	input domain.CreateVerificationInput,
) (*domain.VerificationRequest, error) {
	start := time.Now()
	req, err := v.next.Create(ctx, input)
	v.record(ctx, "verification_create", start, err)
	return req, err
}

// Get records metrics for verification request retrieval.
func (v *verificationUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.VerificationRequest, error) {
	start := time.Now()
	req, err := v.next.Get(ctx, id)
	v.record(ctx, "verification_get", start, err)
	return req, err
}

// Approve records metrics for approvals. Replays are counted under their own operation and do
// not add to the issued credits.
func (v *verificationUseCaseWithMetrics) Approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	start := time.Now()
	result, err := v.next.Approve(ctx, input)

	operation := "verification_approve"
	if err == nil && result.Replayed {
		operation = "verification_approve_replay"
	}
	v.record(ctx, operation, start, err)

	if err == nil && !result.Replayed && result.Issuance != nil {
		v.metrics.RecordCreditIssued(ctx, result.Issuance.Quantity)
	}
	return result, err
}

// Reject records metrics for rejections.
func (v *verificationUseCaseWithMetrics) Reject(
	ctx context.Context,
	input RejectInput,
) (*domain.VerificationRequest, error) {
	start := time.Now()
	req, err := v.next.Reject(ctx, input)
	v.record(ctx, "verification_reject", start, err)
	return req, err
}

func (v *verificationUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	v.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}
