// Package wallet provides clients for the external wallet service that receives issued credit.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/credits/internal/errors"
)

const (
	creditPath = "/v1/credits"

	// maxErrorBody bounds how much of an error response is kept in the returned error.
	maxErrorBody = 512
)

// ErrUnexpectedStatus is returned, wrapped, when the wallet answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected wallet response status")

// creditRequest is the JSON body sent to the wallet.
type creditRequest struct {
	OwnerID  uuid.UUID       `json:"owner_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// HTTPClient credits wallets through the wallet service REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates an HTTPClient. A nil httpClient gets a client with the given timeout.
func NewHTTPClient(
	baseURL, apiKey string,
	timeout time.Duration,
	httpClient *http.Client,
	logger *slog.Logger,
) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Credit posts one credit. The idempotency key is sent as the Idempotency-Key header so that
// redeliveries of the same event never credit twice.
//
// 2xx is success. 408, 429, 5xx and transport errors are transient. Any other status is a
// permanent failure.
func (c *HTTPClient) Credit(
	ctx context.Context,
	ownerID uuid.UUID,
	quantity decimal.Decimal,
	correlationID, idempotencyKey string,
) error {
	body, err := json.Marshal(creditRequest{OwnerID: ownerID, Quantity: quantity})
	if err != nil {
		return errors.Permanent(fmt.Errorf("failed to marshal credit request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+creditPath, bytes.NewReader(body))
	if err != nil {
		return errors.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("wallet request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to execute wallet request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WarnContext(ctx, "failed to close wallet response body", slog.Any("error", err))
		}
	}()

	c.logger.DebugContext(ctx, "wallet response received",
		slog.String("owner_id", ownerID.String()),
		slog.String("idempotency_key", idempotencyKey),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(errors.Truncate(string(respBody), maxErrorBody))
	statusErr := fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, detail)
	if isRetryableStatus(resp.StatusCode) {
		return statusErr
	}
	return errors.Permanent(statusErr)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}

// LogClient only logs credits. It is meant for local runs without a wallet service.
type LogClient struct {
	logger *slog.Logger
}

// NewLogClient creates a LogClient.
func NewLogClient(logger *slog.Logger) *LogClient {
	return &LogClient{logger: logger}
}

// Credit logs the credit and always succeeds.
func (c *LogClient) Credit(
	ctx context.Context,
	ownerID uuid.UUID,
	quantity decimal.Decimal,
	correlationID, idempotencyKey string,
) error {
	c.logger.InfoContext(ctx, "wallet credit",
		slog.String("owner_id", ownerID.String()),
		slog.String("quantity", quantity.String()),
		slog.String("idempotency_key", idempotencyKey),
	)
	return nil
}
