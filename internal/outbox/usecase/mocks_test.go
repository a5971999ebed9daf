package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/credits/internal/outbox/domain"
)

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxEventRepository) GetDispatchable(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) ListByStatus(
	ctx context.Context,
	status domain.OutboxEventStatus,
	offset, limit int,
) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockWalletClient is a mock implementation of WalletClient
type MockWalletClient struct {
	mock.Mock
}

func (m *MockWalletClient) Credit(
	ctx context.Context,
	ownerID uuid.UUID,
	quantity decimal.Decimal,
	correlationID, idempotencyKey string,
) error {
	args := m.Called(ctx, ownerID, quantity, correlationID, idempotencyKey)
	return args.Error(0)
}

// MockAuditLogClient is a mock implementation of AuditLogClient
type MockAuditLogClient struct {
	mock.Mock
}

func (m *MockAuditLogClient) Record(ctx context.Context, action string, data map[string]any) error {
	args := m.Called(ctx, action, data)
	return args.Error(0)
}

// MockLocker is a mock implementation of Locker
type MockLocker struct {
	mock.Mock
	unlocked int
}

func (m *MockLocker) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	args := m.Called(ctx)
	unlock := func(context.Context) error {
		m.unlocked++
		return nil
	}
	return unlock, args.Bool(0), args.Error(1)
}
