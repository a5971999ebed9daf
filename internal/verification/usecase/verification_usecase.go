package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/credits/internal/correlation"
	"github.com/allisson/credits/internal/database"
	apperrors "github.com/allisson/credits/internal/errors"
	issuanceDomain "github.com/allisson/credits/internal/issuance/domain"
	outboxDomain "github.com/allisson/credits/internal/outbox/domain"
	customValidation "github.com/allisson/credits/internal/validation"
	"github.com/allisson/credits/internal/verification/domain"
)

// Audit actions recorded for decisions.
const (
	AuditActionApproved = "verification.approved"
	AuditActionRejected = "verification.rejected"
)

// verificationUseCase implements VerificationUseCase.
type verificationUseCase struct {
	txManager        database.TxManager
	verificationRepo VerificationRequestRepository
	issuanceRepo     CreditIssuanceRepository
	outbox           OutboxEnqueuer
	validator        *Validator
	logger           *slog.Logger
	now              func() time.Time
}

// NewVerificationUseCase creates a new VerificationUseCase.
func NewVerificationUseCase(
	txManager database.TxManager,
	verificationRepo VerificationRequestRepository,
	issuanceRepo CreditIssuanceRepository,
	outbox OutboxEnqueuer,
	logger *slog.Logger,
) VerificationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &verificationUseCase{
		txManager:        txManager,
		verificationRepo: verificationRepo,
		issuanceRepo:     issuanceRepo,
		outbox:           outbox,
		validator:        NewValidator(verificationRepo),
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Create validates input and stores a new pending request.
func (v *verificationUseCase) Create(
	ctx context.Context,
	input domain.CreateVerificationInput,
) (*domain.VerificationRequest, error) {
	if err := v.validator.Validate(ctx, &input); err != nil {
		return nil, err
	}

	req := domain.NewVerificationRequest(input, v.now())
	if err := v.verificationRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	v.logger.InfoContext(ctx, "verification request created",
		slog.String("verification_request_id", req.ID.String()),
		slog.String("owner_id", req.OwnerID.String()),
	)
	return req, nil
}

// Get returns a request by id.
func (v *verificationUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.VerificationRequest, error) {
	return v.verificationRepo.Get(ctx, id)
}

// Approve decides a pending request, issues its credit and enqueues the wallet credit and the
// audit event, all in one transaction. A repeated call with the same idempotency key returns the
// stored outcome without writing anything.
func (v *verificationUseCase) Approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	input.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	if input.IdempotencyKey == "" {
		return nil, domain.ErrIdempotencyKeyRequired
	}
	violations := customValidation.Violations(
		customValidation.Check("idempotency_key", input.IdempotencyKey, customValidation.IdempotencyKey...),
		customValidation.Check("verifier_id", input.VerifierID, customValidation.RequiredUUID),
	)
	if len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations...)
	}

	if input.CorrelationID == "" {
		input.CorrelationID = correlation.FromContext(ctx)
	}
	if input.CorrelationID != "" {
		ctx = correlation.WithID(ctx, input.CorrelationID)
	}

	result, err := v.approve(ctx, input)
	if apperrors.Is(err, issuanceDomain.ErrIssuanceAlreadyExists) || apperrors.Is(err, domain.ErrNotPending) {
		// Another approval may have committed between the key lookup and the row lock; answer from
		// what it stored when it used the same key.
		return v.replayAfterConflict(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		v.logger.InfoContext(ctx, "verification approval replayed",
			slog.String("verification_request_id", input.ID.String()),
			slog.String("issuance_id", result.Issuance.ID.String()),
		)
	} else {
		v.logger.InfoContext(ctx, "verification request approved",
			slog.String("verification_request_id", input.ID.String()),
			slog.String("issuance_id", result.Issuance.ID.String()),
			slog.String("quantity", result.Issuance.Quantity.StringFixed(issuanceDomain.QuantityPlaces)),
		)
	}
	return result, nil
}

func (v *verificationUseCase) approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	var result *ApprovalResult

	err := v.txManager.WithTx(ctx, func(txCtx context.Context) error {
		replay, err := v.lookupReplay(txCtx, input)
		if err != nil {
			return err
		}
		if replay != nil {
			result = replay
			return nil
		}

		req, err := v.verificationRepo.GetForUpdate(txCtx, input.ID)
		if err != nil {
			return err
		}

		now := v.now()
		if err := req.Approve(input.VerifierID, input.Notes, now); err != nil {
			return err
		}

		issuance := issuanceDomain.NewCreditIssuance(
			req.ID,
			req.OwnerID,
			req.DistanceKm,
			req.EnergyKwh,
			input.IdempotencyKey,
			input.CorrelationID,
			now,
		)
		if err := v.issuanceRepo.Create(txCtx, issuance); err != nil {
			return err
		}

		if err := v.verificationRepo.UpdateDecision(txCtx, req); err != nil {
			return err
		}

		wallet := outboxDomain.WalletCreditPayload{
			OwnerID:        req.OwnerID,
			Quantity:       issuance.Quantity,
			IssuanceID:     issuance.ID,
			CorrelationID:  input.CorrelationID,
			IdempotencyKey: input.IdempotencyKey,
		}
		if _, err := v.outbox.Enqueue(txCtx, wallet, input.CorrelationID, input.IdempotencyKey); err != nil {
			return err
		}

		audit := outboxDomain.AuditPayload{
			Action: AuditActionApproved,
			Data: map[string]any{
				"verification_request_id": req.ID.String(),
				"owner_id":                req.OwnerID.String(),
				"verifier_id":             input.VerifierID.String(),
				"issuance_id":             issuance.ID.String(),
				"raw_quantity":            issuance.RawQuantity.String(),
				"quantity":                issuance.Quantity.StringFixed(issuanceDomain.QuantityPlaces),
				"idempotency_key":         input.IdempotencyKey,
				"verified_at":             now.Format(time.RFC3339Nano),
			},
		}
		if _, err := v.outbox.Enqueue(txCtx, audit, input.CorrelationID, ""); err != nil {
			return err
		}

		result = &ApprovalResult{Request: req, Issuance: issuance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lookupReplay returns the stored outcome when the idempotency key was already used for this
// request, nil when the key is unused, and ErrIdempotencyKeyReused when it belongs to another
// request.
func (v *verificationUseCase) lookupReplay(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	issuance, err := v.issuanceRepo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if issuance.VerificationRequestID != input.ID {
		return nil, domain.ErrIdempotencyKeyReused
	}

	req, err := v.verificationRepo.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ApprovalResult{Request: req, Issuance: issuance, Replayed: true}, nil
}

func (v *verificationUseCase) replayAfterConflict(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	replay, err := v.lookupReplay(ctx, input)
	if err != nil {
		return nil, err
	}
	if replay == nil {
		// The conflict was on the request itself: another key approved it.
		return nil, domain.ErrNotPending
	}
	return replay, nil
}

// Reject decides a pending request negatively and enqueues an audit event in the same
// transaction.
func (v *verificationUseCase) Reject(ctx context.Context, input RejectInput) (*domain.VerificationRequest, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, domain.ErrRejectReasonRequired
	}
	if violations := customValidation.Violations(
		customValidation.Check("verifier_id", input.VerifierID, customValidation.RequiredUUID),
	); len(violations) > 0 {
		return nil, apperrors.NewValidationError(violations...)
	}

	correlationID := correlation.FromContext(ctx)

	var req *domain.VerificationRequest
	err := v.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		req, err = v.verificationRepo.GetForUpdate(txCtx, input.ID)
		if err != nil {
			return err
		}

		now := v.now()
		if err := req.Reject(input.VerifierID, input.Reason, now); err != nil {
			return err
		}
		if err := v.verificationRepo.UpdateDecision(txCtx, req); err != nil {
			return err
		}

		audit := outboxDomain.AuditPayload{
			Action: AuditActionRejected,
			Data: map[string]any{
				"verification_request_id": req.ID.String(),
				"owner_id":                req.OwnerID.String(),
				"verifier_id":             input.VerifierID.String(),
				"reason":                  *req.Notes,
				"verified_at":             now.Format(time.RFC3339Nano),
			},
		}
		_, err = v.outbox.Enqueue(txCtx, audit, correlationID, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	v.logger.InfoContext(ctx, "verification request rejected",
		slog.String("verification_request_id", req.ID.String()),
	)
	return req, nil
}
