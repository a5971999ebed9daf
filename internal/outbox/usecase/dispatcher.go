package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/allisson/credits/internal/correlation"
	"github.com/allisson/credits/internal/errors"
	"github.com/allisson/credits/internal/metrics"
	"github.com/allisson/credits/internal/outbox/domain"
)

// Config holds dispatcher configuration
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	EventTimeout time.Duration
	// DispatchRate limits outbound calls per second. Zero means unlimited.
	DispatchRate float64
}

// UseCase defines the interface for the outbox dispatcher
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// Dispatcher delivers due outbox events to the wallet and the audit log.
type Dispatcher struct {
	config  Config
	store   EventStore
	wallet  WalletClient
	audit   AuditLogClient
	locker  Locker
	limiter *rate.Limiter
	metrics metrics.OutboxMetrics
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher. locker may be nil when a single dispatcher runs.
func NewDispatcher(
	config Config,
	store EventStore,
	wallet WalletClient,
	audit AuditLogClient,
	locker Locker,
	outboxMetrics metrics.OutboxMetrics,
	logger *slog.Logger,
) *Dispatcher {
	if outboxMetrics == nil {
		outboxMetrics = metrics.NewNoOpOutboxMetrics()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Dispatcher{
		config:  config,
		store:   store,
		wallet:  wallet,
		audit:   audit,
		locker:  locker,
		metrics: outboxMetrics,
		logger:  logger,
	}
	if config.DispatchRate > 0 {
		burst := int(config.DispatchRate)
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(config.DispatchRate), burst)
	}
	return d
}

// Start runs ProcessEvents every PollInterval until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("starting outbox dispatcher",
		slog.Duration("poll_interval", d.config.PollInterval),
		slog.Int("batch_size", d.config.BatchSize),
		slog.Duration("event_timeout", d.config.EventTimeout),
	)

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping outbox dispatcher")
			return ctx.Err()
		case <-ticker.C:
			if err := d.ProcessEvents(ctx); err != nil {
				d.logger.Error("failed to process outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents runs a single dispatcher tick: it fetches the due events and delivers them one
// by one. A delivery failure never aborts the tick; storage failures do.
func (d *Dispatcher) ProcessEvents(ctx context.Context) error {
	if d.locker != nil {
		unlock, ok, err := d.locker.TryLock(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to acquire dispatcher lock")
		}
		if !ok {
			d.logger.Debug("dispatcher lock held elsewhere, skipping tick")
			return nil
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				d.logger.Warn("failed to release dispatcher lock", slog.Any("error", err))
			}
		}()
	}

	events, err := d.store.FetchDispatchable(ctx, d.config.BatchSize)
	if err != nil {
		return errors.Wrap(err, "failed to fetch dispatchable events")
	}
	d.metrics.RecordBatch(ctx, len(events))

	if len(events) == 0 {
		return nil
	}

	d.logger.Info("dispatching outbox events", slog.Int("count", len(events)))

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := d.dispatchEvent(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

// dispatchEvent delivers one event and records the outcome. Only a failure to store the
// outcome is returned.
func (d *Dispatcher) dispatchEvent(ctx context.Context, event *domain.OutboxEvent) error {
	ctx = correlation.WithID(ctx, event.CorrelationIDValue())
	start := time.Now()

	deliveryErr := d.deliver(ctx, event)
	duration := time.Since(start)

	if deliveryErr == nil {
		if err := d.store.MarkSucceeded(ctx, event); err != nil {
			return errors.Wrapf(err, "failed to mark event %s as sent", event.ID)
		}
		d.metrics.RecordDelivery(ctx, string(event.EventType), metrics.OutcomeSent, duration)
		d.logger.InfoContext(ctx, "outbox event sent",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", string(event.EventType)),
			slog.Int("attempts", event.Attempts+1),
		)
		return nil
	}

	if err := d.store.MarkFailed(ctx, event, deliveryErr); err != nil {
		return errors.Wrapf(err, "failed to record delivery failure of event %s", event.ID)
	}

	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.Int("attempts", event.Attempts),
		slog.Any("error", deliveryErr),
	}
	if event.Status == domain.OutboxEventStatusFailed {
		d.metrics.RecordDelivery(ctx, string(event.EventType), metrics.OutcomeFailed, duration)
		d.logger.ErrorContext(ctx, "outbox event failed permanently", attrs...)
		return nil
	}

	d.metrics.RecordDelivery(ctx, string(event.EventType), metrics.OutcomeRetry, duration)
	d.logger.WarnContext(ctx, "outbox event delivery failed, will retry",
		append(attrs, slog.Time("next_attempt_at", event.NextAttemptAt))...)
	return nil
}

// deliver decodes the payload and calls the matching client under the per-event timeout.
func (d *Dispatcher) deliver(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := domain.DecodePayload(event.EventType, event.Payload)
	if err != nil {
		return err
	}

	if d.config.EventTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.EventTimeout)
		defer cancel()
	}

	switch p := payload.(type) {
	case domain.WalletCreditPayload:
		return d.wallet.Credit(ctx, p.OwnerID, p.Quantity, p.CorrelationID, p.IdempotencyKey)
	case domain.AuditPayload:
		return d.audit.Record(ctx, p.Action, p.Data)
	default:
		return errors.Wrapf(domain.ErrUnknownEventType, "%T", payload)
	}
}
