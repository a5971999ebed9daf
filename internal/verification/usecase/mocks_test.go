package usecase

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	issuanceDomain "github.com/allisson/credits/internal/issuance/domain"
	"github.com/allisson/credits/internal/metrics"
	outboxDomain "github.com/allisson/credits/internal/outbox/domain"
	"github.com/allisson/credits/internal/verification/domain"
)

// MockVerificationRequestRepository is a mock implementation of VerificationRequestRepository
type MockVerificationRequestRepository struct {
	mock.Mock
}

func (m *MockVerificationRequestRepository) Create(ctx context.Context, req *domain.VerificationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockVerificationRequestRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*domain.VerificationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationRequest), args.Error(1)
}

func (m *MockVerificationRequestRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.VerificationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationRequest), args.Error(1)
}

func (m *MockVerificationRequestRepository) ExistsByChecksum(ctx context.Context, checksum string) (bool, error) {
	args := m.Called(ctx, checksum)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRequestRepository) ExistsByOwnerTrip(
	ctx context.Context,
	ownerID uuid.UUID,
	tripReference string,
) (bool, error) {
	args := m.Called(ctx, ownerID, tripReference)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRequestRepository) UpdateDecision(
	ctx context.Context,
	req *domain.VerificationRequest,
) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockCreditIssuanceRepository is a mock implementation of CreditIssuanceRepository
type MockCreditIssuanceRepository struct {
	mock.Mock
}

func (m *MockCreditIssuanceRepository) Create(ctx context.Context, issuance *issuanceDomain.CreditIssuance) error {
	args := m.Called(ctx, issuance)
	return args.Error(0)
}

func (m *MockCreditIssuanceRepository) GetByIdempotencyKey(
	ctx context.Context,
	key string,
) (*issuanceDomain.CreditIssuance, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuanceDomain.CreditIssuance), args.Error(1)
}

func (m *MockCreditIssuanceRepository) GetByVerificationRequestID(
	ctx context.Context,
	id uuid.UUID,
) (*issuanceDomain.CreditIssuance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuanceDomain.CreditIssuance), args.Error(1)
}

// MockOutboxEnqueuer is a mock implementation of OutboxEnqueuer
type MockOutboxEnqueuer struct {
	mock.Mock
}

func (m *MockOutboxEnqueuer) Enqueue(
	ctx context.Context,
	payload outboxDomain.Payload,
	correlationID, idempotencyKey string,
) (*outboxDomain.OutboxEvent, error) {
	args := m.Called(ctx, payload, correlationID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outboxDomain.OutboxEvent), args.Error(1)
}

// MockVerificationUseCase is a mock implementation of VerificationUseCase
type MockVerificationUseCase struct {
	mock.Mock
}

func (m *MockVerificationUseCase) Create(
	ctx context.Context,
	input domain.CreateVerificationInput,
) (*domain.VerificationRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationRequest), args.Error(1)
}

func (m *MockVerificationUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.VerificationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationRequest), args.Error(1)
}

func (m *MockVerificationUseCase) Approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ApprovalResult), args.Error(1)
}

func (m *MockVerificationUseCase) Reject(
	ctx context.Context,
	input RejectInput,
) (*domain.VerificationRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationRequest), args.Error(1)
}

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordCreditIssued(ctx context.Context, quantity decimal.Decimal) {
	m.Called(ctx, quantity)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

// passthroughTxManager runs fn without a transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// enqueuedEvent is one side effect captured by memoryStore.
type enqueuedEvent struct {
	Payload        outboxDomain.Payload
	CorrelationID  string
	IdempotencyKey string
}

// memoryStore keeps requests, issuances and enqueued events in memory. Its WithTx restores the
// previous state when fn fails, so tests can observe all-or-nothing behaviour.
type memoryStore struct {
	mu         sync.Mutex
	requests   map[uuid.UUID]domain.VerificationRequest
	issuances  map[string]issuanceDomain.CreditIssuance
	events     []enqueuedEvent
	enqueueErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		requests:  make(map[uuid.UUID]domain.VerificationRequest),
		issuances: make(map[string]issuanceDomain.CreditIssuance),
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	requests := maps.Clone(s.requests)
	issuances := maps.Clone(s.issuances)
	events := slices.Clone(s.events)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.requests, s.issuances, s.events = requests, issuances, events
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memoryStore) request(id uuid.UUID) domain.VerificationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

func (s *memoryStore) enqueued() []enqueuedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

func (s *memoryStore) issuanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issuances)
}

// memoryVerificationRepository implements VerificationRequestRepository on a memoryStore.
type memoryVerificationRepository struct{ store *memoryStore }

func (r memoryVerificationRepository) Create(_ context.Context, req *domain.VerificationRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.requests[req.ID] = *req
	return nil
}

func (r memoryVerificationRepository) Get(_ context.Context, id uuid.UUID) (*domain.VerificationRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, ok := r.store.requests[id]
	if !ok {
		return nil, domain.ErrVerificationRequestNotFound
	}
	return &req, nil
}

func (r memoryVerificationRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.VerificationRequest, error) {
	return r.Get(ctx, id)
}

func (r memoryVerificationRepository) ExistsByChecksum(_ context.Context, checksum string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, req := range r.store.requests {
		if req.Checksum == checksum {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryVerificationRepository) ExistsByOwnerTrip(
	_ context.Context,
	ownerID uuid.UUID,
	tripReference string,
) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, req := range r.store.requests {
		if req.OwnerID == ownerID && req.TripReference == tripReference {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryVerificationRepository) UpdateDecision(_ context.Context, req *domain.VerificationRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.requests[req.ID]
	if !ok || stored.Status != domain.StatusPending {
		return domain.ErrNotPending
	}
	r.store.requests[req.ID] = *req
	return nil
}

// memoryIssuanceRepository implements CreditIssuanceRepository on a memoryStore.
type memoryIssuanceRepository struct{ store *memoryStore }

func (r memoryIssuanceRepository) Create(_ context.Context, issuance *issuanceDomain.CreditIssuance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.issuances[issuance.IdempotencyKey]; ok {
		return issuanceDomain.ErrIssuanceAlreadyExists
	}
	for _, existing := range r.store.issuances {
		if existing.VerificationRequestID == issuance.VerificationRequestID {
			return issuanceDomain.ErrIssuanceAlreadyExists
		}
	}
	r.store.issuances[issuance.IdempotencyKey] = *issuance
	return nil
}

func (r memoryIssuanceRepository) GetByIdempotencyKey(
	_ context.Context,
	key string,
) (*issuanceDomain.CreditIssuance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	issuance, ok := r.store.issuances[key]
	if !ok {
		return nil, issuanceDomain.ErrCreditIssuanceNotFound
	}
	return &issuance, nil
}

func (r memoryIssuanceRepository) GetByVerificationRequestID(
	_ context.Context,
	id uuid.UUID,
) (*issuanceDomain.CreditIssuance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, issuance := range r.store.issuances {
		if issuance.VerificationRequestID == id {
			return &issuance, nil
		}
	}
	return nil, issuanceDomain.ErrCreditIssuanceNotFound
}

// memoryOutbox implements OutboxEnqueuer on a memoryStore.
type memoryOutbox struct{ store *memoryStore }

func (o memoryOutbox) Enqueue(
	_ context.Context,
	payload outboxDomain.Payload,
	correlationID, idempotencyKey string,
) (*outboxDomain.OutboxEvent, error) {
	raw, err := outboxDomain.EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	if o.store.enqueueErr != nil {
		return nil, o.store.enqueueErr
	}
	o.store.events = append(o.store.events, enqueuedEvent{
		Payload:        payload,
		CorrelationID:  correlationID,
		IdempotencyKey: idempotencyKey,
	})
	return &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: payload.EventType(),
		Status:    outboxDomain.OutboxEventStatusPending,
		Payload:   raw,
	}, nil
}
