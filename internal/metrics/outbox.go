package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Delivery outcomes reported by the outbox dispatcher.
const (
	OutcomeSent   = "sent"
	OutcomeRetry  = "retry"
	OutcomeFailed = "failed"
)

// OutboxMetrics records what the outbox dispatcher does with each event.
type OutboxMetrics interface {
	// RecordDelivery counts one delivery attempt and its duration. Outcome is one of
	// OutcomeSent, OutcomeRetry or OutcomeFailed.
	RecordDelivery(ctx context.Context, eventType, outcome string, duration time.Duration)

	// RecordBatch records how many due events a dispatcher tick fetched.
	RecordBatch(ctx context.Context, size int)
}

type outboxMetrics struct {
	deliveryCounter metric.Int64Counter
	durationHisto   metric.Float64Histogram
	batchHisto      metric.Int64Histogram
}

// NewOutboxMetrics creates OutboxMetrics backed by the given meter provider.
func NewOutboxMetrics(meterProvider metric.MeterProvider, namespace string) (OutboxMetrics, error) {
	meter := meterProvider.Meter(namespace)

	deliveryCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_outbox_deliveries_total", namespace),
		metric.WithDescription("Total number of outbox delivery attempts by outcome"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox delivery counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_outbox_delivery_duration_seconds", namespace),
		metric.WithDescription("Duration of outbox delivery attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox duration histogram: %w", err)
	}

	batchHisto, err := meter.Int64Histogram(
		fmt.Sprintf("%s_outbox_batch_size", namespace),
		metric.WithDescription("Number of due outbox events fetched per dispatcher tick"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox batch histogram: %w", err)
	}

	return &outboxMetrics{
		deliveryCounter: deliveryCounter,
		durationHisto:   durationHisto,
		batchHisto:      batchHisto,
	}, nil
}

func (o *outboxMetrics) RecordDelivery(ctx context.Context, eventType, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	)
	o.deliveryCounter.Add(ctx, 1, attrs)
	o.durationHisto.Record(ctx, duration.Seconds(), attrs)
}

func (o *outboxMetrics) RecordBatch(ctx context.Context, size int) {
	o.batchHisto.Record(ctx, int64(size))
}

// NoOpOutboxMetrics discards everything.
type NoOpOutboxMetrics struct{}

// NewNoOpOutboxMetrics creates a no-op OutboxMetrics implementation.
func NewNoOpOutboxMetrics() OutboxMetrics {
	return &NoOpOutboxMetrics{}
}

func (n *NoOpOutboxMetrics) RecordDelivery(ctx context.Context, eventType, outcome string, duration time.Duration) {
}

func (n *NoOpOutboxMetrics) RecordBatch(ctx context.Context, size int) {}
