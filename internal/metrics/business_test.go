package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks the Prometheus output for a sample with the given name, partial label
// pattern and value. The exporter adds otel scope labels, hence the regex.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func newTestBusinessMetrics(t *testing.T, namespace string) (*Provider, BusinessMetrics) {
	t.Helper()

	provider, err := NewProvider(namespace)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	bm, err := NewBusinessMetrics(provider.MeterProvider(), namespace)
	require.NoError(t, err)
	return provider, bm
}

func TestBusinessMetrics_Operations(t *testing.T) {
	provider, bm := newTestBusinessMetrics(t, "ops_test")
	ctx := context.Background()

	bm.RecordOperation(ctx, "verification", "verification_create", "success")
	bm.RecordOperation(ctx, "verification", "verification_create", "success")
	bm.RecordOperation(ctx, "verification", "verification_create", "error")
	bm.RecordOperation(ctx, "verification", "verification_approve", "success")
	bm.RecordOperation(ctx, "verification", "verification_approve_replay", "success")
	bm.RecordOperation(ctx, "verification", "verification_reject", "success")

	bm.RecordDuration(ctx, "verification", "verification_create", 50*time.Millisecond, "success")
	bm.RecordDuration(ctx, "verification", "verification_create", 60*time.Millisecond, "success")
	bm.RecordDuration(ctx, "verification", "verification_approve", 10*time.Millisecond, "success")

	output := scrape(t, provider)

	assertMetricLine(t, output, `ops_test_operations_total`,
		`domain="verification".*operation="verification_create".*status="success"`, `2`)
	assertMetricLine(t, output, `ops_test_operations_total`,
		`domain="verification".*operation="verification_create".*status="error"`, `1`)
	assertMetricLine(t, output, `ops_test_operations_total`,
		`operation="verification_approve_replay".*status="success"`, `1`)
	assertMetricLine(t, output, `ops_test_operation_duration_seconds_count`,
		`operation="verification_create".*status="success"`, `2`)
	assertMetricLine(t, output, `ops_test_operation_duration_seconds_count`,
		`operation="verification_approve".*status="success"`, `1`)
}

func TestBusinessMetrics_RecordCreditIssued(t *testing.T) {
	provider, bm := newTestBusinessMetrics(t, "credit_test")
	ctx := context.Background()

	bm.RecordCreditIssued(ctx, decimal.RequireFromString("12.5"))
	bm.RecordCreditIssued(ctx, decimal.RequireFromString("2.5"))
	bm.RecordCreditIssued(ctx, decimal.Zero)

	output := scrape(t, provider)

	assertMetricLine(t, output, `credit_test_issuances_total`, ``, `3`)
	assertMetricLine(t, output, `credit_test_credits_issued_total`, ``, `15`)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	noOpMetrics := NewNoOpBusinessMetrics()

	assert.IsType(t, &NoOpBusinessMetrics{}, noOpMetrics)
	assert.NotPanics(t, func() {
		noOpMetrics.RecordOperation(context.Background(), "verification", "verification_create", "success")
		noOpMetrics.RecordDuration(context.Background(), "verification", "verification_approve",
			200*time.Millisecond, "error")
		noOpMetrics.RecordCreditIssued(context.Background(), decimal.NewFromInt(1))
	})
}
