// Package integration provides end-to-end integration tests for the credits API.
// Tests the verification workflow and outbox delivery against both PostgreSQL and MySQL databases.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/credits/internal/app"
	"github.com/allisson/credits/internal/config"
	outboxDTO "github.com/allisson/credits/internal/outbox/http/dto"
	"github.com/allisson/credits/internal/testutil"
	verificationDTO "github.com/allisson/credits/internal/verification/http/dto"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	headers map[string]string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// runDispatcherTick waits for freshly enqueued events to become due and runs one dispatcher tick.
func (ctx *integrationTestContext) runDispatcherTick(t *testing.T) {
	t.Helper()

	dispatcher, err := ctx.container.Dispatcher()
	require.NoError(t, err, "failed to get outbox dispatcher")

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, dispatcher.ProcessEvents(context.Background()))
}

// countOutboxEvents returns the number of outbox events with the given status.
func (ctx *integrationTestContext) countOutboxEvents(t *testing.T, status string) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM outbox_events WHERE status = $1"
	if ctx.dbDriver == "mysql" {
		query = "SELECT COUNT(*) FROM outbox_events WHERE status = ?"
	}

	var count int
	require.NoError(t, ctx.db.QueryRow(query, status).Scan(&count))
	return count
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		ServerHost:           "localhost",
		ServerPort:           8080,
		LogLevel:             "error",
		MetricsEnabled:       false,
		RateLimitEnabled:     false,
		OutboxMaxAttempts:    5,
		OutboxInitialBackoff: time.Millisecond,
		OutboxMaxBackoff:     10 * time.Millisecond,
		OutboxBatchSize:      25,
		OutboxPollInterval:   time.Second,
		OutboxEventTimeout:   5 * time.Second,
		WalletClient:         "log",
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	testServer := httptest.NewServer(handler)

	t.Logf("Integration test setup complete for %s", dbDriver)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}

	t.Logf("Integration test teardown complete for %s", ctx.dbDriver)
}

var testCases = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// TestIntegration_Health_BasicChecks validates infrastructure health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.SkipIfNoDB(t, tc.dbDriver)

			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "healthy", response["status"])
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, nil)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]any
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "ready", response["status"])
			})
		})
	}
}

// TestIntegration_Verification_ApprovalFlow covers submission, approval, idempotent replay and
// delivery of the resulting outbox events.
func TestIntegration_Verification_ApprovalFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.SkipIfNoDB(t, tc.dbDriver)

			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			ownerID := uuid.Must(uuid.NewV7()).String()
			verifierID := uuid.Must(uuid.NewV7()).String()
			idempotencyKey := "approve-" + uuid.NewString()
			var verificationID string

			t.Run("01_Create", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/verifications", map[string]any{
					"owner_id":       ownerID,
					"trip_reference": "trip-integration-1",
					"distance_km":    "120",
					"energy_kwh":     "24",
					"checksum":       "sha256:integration-1",
				}, nil)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var response verificationDTO.VerificationResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "pending", response.Status)
				assert.Equal(t, ownerID, response.OwnerID)
				verificationID = response.ID
			})

			t.Run("02_DuplicateChecksumRejected", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/verifications", map[string]any{
					"owner_id":       ownerID,
					"trip_reference": "trip-integration-2",
					"distance_km":    "10",
					"energy_kwh":     "2",
					"checksum":       "sha256:integration-1",
				}, nil)
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
				assert.Contains(t, string(body), "duplicate checksum")
			})

			t.Run("03_ApproveWithoutKey", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/verifications/"+verificationID+"/approve",
					map[string]any{"verifier_id": verifierID}, nil)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
				assert.Equal(t, 0, testutil.CountRows(t, ctx.db, "outbox_events"))
			})

			t.Run("04_Approve", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/verifications/"+verificationID+"/approve",
					map[string]any{"verifier_id": verifierID, "notes": "looks good"},
					map[string]string{"Idempotency-Key": idempotencyKey, "X-Correlation-ID": "corr-integration"})
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var response verificationDTO.ApprovalResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.False(t, response.Replayed)
				assert.Equal(t, "approved", response.Verification.Status)
				assert.Equal(t, "13.44", response.Issuance.Quantity)
				assert.Equal(t, idempotencyKey, response.Issuance.IdempotencyKey)
				assert.Equal(t, 2, ctx.countOutboxEvents(t, "pending"))
			})

			t.Run("05_ReplayReturnsStoredOutcome", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/verifications/"+verificationID+"/approve",
					map[string]any{"verifier_id": verifierID},
					map[string]string{"Idempotency-Key": idempotencyKey})
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var response verificationDTO.ApprovalResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.True(t, response.Replayed)
				assert.Equal(t, "13.44", response.Issuance.Quantity)
				assert.Equal(t, 1, testutil.CountRows(t, ctx.db, "credit_issuances"))
				assert.Equal(t, 2, testutil.CountRows(t, ctx.db, "outbox_events"))
			})

			t.Run("06_ApproveWithNewKeyConflicts", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/verifications/"+verificationID+"/approve",
					map[string]any{"verifier_id": verifierID},
					map[string]string{"Idempotency-Key": "another-" + idempotencyKey})
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("07_DispatchDeliversEvents", func(t *testing.T) {
				ctx.runDispatcherTick(t)

				assert.Equal(t, 0, ctx.countOutboxEvents(t, "pending"))
				assert.Equal(t, 2, ctx.countOutboxEvents(t, "sent"))
				assert.Equal(t, 1, testutil.CountRows(t, ctx.db, "audit_logs"))
			})

			t.Run("08_NoFailedEvents", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/outbox/failed-events", nil, nil)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var response outboxDTO.ListOutboxEventsResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Empty(t, response.Data)
			})
		})
	}
}

// TestIntegration_Verification_RejectFlow covers rejection and the audit event it emits.
func TestIntegration_Verification_RejectFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.SkipIfNoDB(t, tc.dbDriver)

			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			id := testutil.CreateTestVerificationRequest(t, ctx.db, tc.dbDriver, "trip-reject", "sha256:reject")
			verifierID := uuid.Must(uuid.NewV7()).String()

			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/verifications/"+id.String()+"/reject",
				map[string]any{"verifier_id": verifierID, "reason": "odometer mismatch"}, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var response verificationDTO.VerificationResponse
			require.NoError(t, json.Unmarshal(body, &response))
			assert.Equal(t, "rejected", response.Status)
			require.NotNil(t, response.Notes)
			assert.Equal(t, "odometer mismatch", *response.Notes)

			resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/verifications/"+id.String()+"/approve",
				map[string]any{"verifier_id": verifierID},
				map[string]string{"Idempotency-Key": "approve-after-reject"})
			assert.Equal(t, http.StatusConflict, resp.StatusCode)

			assert.Equal(t, 0, testutil.CountRows(t, ctx.db, "credit_issuances"))
			assert.Equal(t, 1, ctx.countOutboxEvents(t, "pending"))

			ctx.runDispatcherTick(t)

			assert.Equal(t, 1, ctx.countOutboxEvents(t, "sent"))
			assert.Equal(t, 1, testutil.CountRows(t, ctx.db, "audit_logs"))
		})
	}
}
