package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics records verification use case outcomes.
type BusinessMetrics interface {
	// RecordOperation counts one operation. Domain is "verification"; operation is one of
	// verification_create, verification_get, verification_approve, verification_approve_replay
	// or verification_reject; status is "success" or "error".
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration observes how long an operation took, in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordCreditIssued adds a newly issued credit quantity. Replays must not be recorded.
	RecordCreditIssued(ctx context.Context, quantity decimal.Decimal)
}

type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	issuanceCounter  metric.Int64Counter
	creditsCounter   metric.Float64Counter
}

// NewBusinessMetrics creates BusinessMetrics backed by the given meter provider. Metric names are
// prefixed with namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of verification operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of verification operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	issuanceCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_issuances_total", namespace),
		metric.WithDescription("Total number of credit issuances created"),
		metric.WithUnit("{issuance}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create issuance counter: %w", err)
	}

	creditsCounter, err := meter.Float64Counter(
		fmt.Sprintf("%s_credits_issued_total", namespace),
		metric.WithDescription("Total credit quantity issued, in kg CO2e"),
		metric.WithUnit("{credit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credits counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		issuanceCounter:  issuanceCounter,
		creditsCounter:   creditsCounter,
	}, nil
}

func operationAttributes(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1, operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(), operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordCreditIssued(ctx context.Context, quantity decimal.Decimal) {
	b.issuanceCounter.Add(ctx, 1)
	if quantity.IsPositive() {
		b.creditsCounter.Add(ctx, quantity.InexactFloat64())
	}
}

// NoOpBusinessMetrics is used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

func (n *NoOpBusinessMetrics) RecordCreditIssued(ctx context.Context, quantity decimal.Decimal) {}
