// Package http provides HTTP handlers for submitting and deciding trip verification requests.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/credits/internal/correlation"
	"github.com/allisson/credits/internal/httputil"
	customValidation "github.com/allisson/credits/internal/validation"
	"github.com/allisson/credits/internal/verification/domain"
	"github.com/allisson/credits/internal/verification/http/dto"
	verificationUseCase "github.com/allisson/credits/internal/verification/usecase"
)

// IdempotencyKeyHeader carries the approval idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

// VerificationHandler handles HTTP requests for verification requests.
type VerificationHandler struct {
	verificationUseCase verificationUseCase.VerificationUseCase
	logger              *slog.Logger
}

// NewVerificationHandler creates a new verification handler.
func NewVerificationHandler(
	verificationUseCase verificationUseCase.VerificationUseCase,
	logger *slog.Logger,
) *VerificationHandler {
	return &VerificationHandler{
		verificationUseCase: verificationUseCase,
		logger:              logger,
	}
}

// CreateHandler submits a new trip claim.
// POST /v1/verifications - Returns 201 Created with the pending request.
func (h *VerificationHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateVerificationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	verification, err := h.verificationUseCase.Create(c.Request.Context(), req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapVerificationToResponse(verification))
}

// GetHandler returns a verification request by id.
// GET /v1/verifications/:id - Returns 200 OK.
func (h *VerificationHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	verification, err := h.verificationUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerificationToResponse(verification))
}

// ApproveHandler approves a pending request and issues its credit.
// POST /v1/verifications/:id/approve - Requires the Idempotency-Key header. Returns 200 OK with
// the request, the issuance and whether the response is a replay.
func (h *VerificationHandler) ApproveHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	// A keyless approval is a conflict whatever the body holds.
	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
	if strings.TrimSpace(idempotencyKey) == "" {
		httputil.HandleErrorGin(c, domain.ErrIdempotencyKeyRequired, h.logger)
		return
	}

	var req dto.ApproveVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()
	result, err := h.verificationUseCase.Approve(ctx, verificationUseCase.ApproveInput{
		ID:             id,
		VerifierID:     uuid.MustParse(req.VerifierID),
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey,
		CorrelationID:  correlation.FromContext(ctx),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapApprovalToResponse(result))
}

// RejectHandler rejects a pending request.
// POST /v1/verifications/:id/reject - Returns 200 OK with the rejected request.
func (h *VerificationHandler) RejectHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.RejectVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	verification, err := h.verificationUseCase.Reject(c.Request.Context(), verificationUseCase.RejectInput{
		ID:         id,
		VerifierID: uuid.MustParse(req.VerifierID),
		Reason:     req.Reason,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVerificationToResponse(verification))
}

func (h *VerificationHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid verification id: %w", err), h.logger)
		return uuid.Nil, false
	}
	return id, true
}
