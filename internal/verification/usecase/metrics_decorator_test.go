package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	issuanceDomain "github.com/allisson/credits/internal/issuance/domain"
	"github.com/allisson/credits/internal/verification/domain"
)

func TestNewVerificationUseCaseWithMetrics(t *testing.T) {
	decorator := NewVerificationUseCaseWithMetrics(&MockVerificationUseCase{}, &mockBusinessMetrics{})

	assert.NotNil(t, decorator)
	assert.Implements(t, (*VerificationUseCase)(nil), decorator)
}

func expectMetrics(ctx context.Context, m *mockBusinessMetrics, operation, status string) {
	m.On("RecordOperation", ctx, "verification", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "verification", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestMetricsDecorator_Create(t *testing.T) {
	ctx := context.Background()
	input := validInput()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		useCase := &MockVerificationUseCase{}
		m := &mockBusinessMetrics{}
		req := domain.NewVerificationRequest(input, testNow)

		useCase.On("Create", ctx, input).Return(req, nil).Once()
		expectMetrics(ctx, m, "verification_create", "success")

		got, err := NewVerificationUseCaseWithMetrics(useCase, m).Create(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, req, got)
		useCase.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		useCase := &MockVerificationUseCase{}
		m := &mockBusinessMetrics{}

		useCase.On("Create", ctx, input).Return(nil, assert.AnError).Once()
		expectMetrics(ctx, m, "verification_create", "error")

		got, err := NewVerificationUseCaseWithMetrics(useCase, m).Create(ctx, input)

		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, got)
		m.AssertExpectations(t)
	})
}

func TestMetricsDecorator_Get(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())
	useCase := &MockVerificationUseCase{}
	m := &mockBusinessMetrics{}

	useCase.On("Get", ctx, id).Return(nil, domain.ErrVerificationRequestNotFound).Once()
	expectMetrics(ctx, m, "verification_get", "error")

	_, err := NewVerificationUseCaseWithMetrics(useCase, m).Get(ctx, id)

	assert.ErrorIs(t, err, domain.ErrVerificationRequestNotFound)
	m.AssertExpectations(t)
}

func TestMetricsDecorator_Approve(t *testing.T) {
	ctx := context.Background()
	input := approveInput(uuid.Must(uuid.NewV7()), "approve-1")

	t.Run("Success_FirstApproval", func(t *testing.T) {
		useCase := &MockVerificationUseCase{}
		m := &mockBusinessMetrics{}

		quantity := decimal.RequireFromString("13.44")
		result := &ApprovalResult{Issuance: &issuanceDomain.CreditIssuance{Quantity: quantity}}

		useCase.On("Approve", ctx, input).Return(result, nil).Once()
		expectMetrics(ctx, m, "verification_approve", "success")
		m.On("RecordCreditIssued", ctx, quantity).Return().Once()

		_, err := NewVerificationUseCaseWithMetrics(useCase, m).Approve(ctx, input)

		assert.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("Success_Replay", func(t *testing.T) {
		useCase := &MockVerificationUseCase{}
		m := &mockBusinessMetrics{}

		result := &ApprovalResult{
			Issuance: &issuanceDomain.CreditIssuance{Quantity: decimal.RequireFromString("13.44")},
			Replayed: true,
		}
		useCase.On("Approve", ctx, input).Return(result, nil).Once()
		expectMetrics(ctx, m, "verification_approve_replay", "success")

		result, err := NewVerificationUseCaseWithMetrics(useCase, m).Approve(ctx, input)

		assert.NoError(t, err)
		assert.True(t, result.Replayed)
		m.AssertExpectations(t)
		m.AssertNotCalled(t, "RecordCreditIssued", mock.Anything, mock.Anything)
	})

	t.Run("Error_Conflict", func(t *testing.T) {
		useCase := &MockVerificationUseCase{}
		m := &mockBusinessMetrics{}

		useCase.On("Approve", ctx, input).Return(nil, domain.ErrNotPending).Once()
		expectMetrics(ctx, m, "verification_approve", "error")

		_, err := NewVerificationUseCaseWithMetrics(useCase, m).Approve(ctx, input)

		assert.ErrorIs(t, err, domain.ErrNotPending)
		m.AssertExpectations(t)
	})
}

func TestMetricsDecorator_Reject(t *testing.T) {
	ctx := context.Background()
	input := RejectInput{ID: uuid.Must(uuid.NewV7()), VerifierID: uuid.Must(uuid.NewV7()), Reason: "fake"}
	useCase := &MockVerificationUseCase{}
	m := &mockBusinessMetrics{}

	useCase.On("Reject", ctx, input).Return(&domain.VerificationRequest{Status: domain.StatusRejected}, nil).Once()
	expectMetrics(ctx, m, "verification_reject", "success")

	req, err := NewVerificationUseCaseWithMetrics(useCase, m).Reject(ctx, input)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, req.Status)
	m.AssertExpectations(t)
}
