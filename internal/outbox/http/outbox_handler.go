// Package http provides operator endpoints for inspecting the outbox.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/credits/internal/httputil"
	"github.com/allisson/credits/internal/outbox/domain"
	"github.com/allisson/credits/internal/outbox/http/dto"
)

// FailedEventLister lists events that will not be retried.
type FailedEventLister interface {
	ListFailed(ctx context.Context, offset, limit int) ([]*domain.OutboxEvent, error)
}

// OutboxHandler handles HTTP requests for outbox inspection.
type OutboxHandler struct {
	lister FailedEventLister
	logger *slog.Logger
}

// NewOutboxHandler creates a new outbox handler.
func NewOutboxHandler(lister FailedEventLister, logger *slog.Logger) *OutboxHandler {
	return &OutboxHandler{lister: lister, logger: logger}
}

// ListFailedHandler lists failed outbox events with pagination support.
// GET /v1/outbox/failed-events?offset=0&limit=50 - Returns 200 OK.
func (h *OutboxHandler) ListFailedHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	events, err := h.lister.ListFailed(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOutboxEventsToListResponse(events))
}
