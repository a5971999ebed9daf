// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/credits/internal/errors"
)

// ErrorResponse is the JSON body of every failed API response.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means the error text is exposed
}

// errorMappings is checked in order; the first target matched with errors.Is wins.
var errorMappings = []errorMapping{
	{target: apperrors.ErrNotFound, status: http.StatusNotFound, code: "not_found", message: "The requested resource was not found"},
	{target: apperrors.ErrConflict, status: http.StatusConflict, code: "conflict"},
	{target: apperrors.ErrInvalidInput, status: http.StatusUnprocessableEntity, code: "invalid_input"},
}

var internalErrorMapping = errorMapping{
	status:  http.StatusInternalServerError,
	code:    "internal_error",
	message: "An internal error occurred",
}

func mapError(err error) errorMapping {
	for _, m := range errorMappings {
		if apperrors.Is(err, m.target) {
			return m
		}
	}
	return internalErrorMapping
}

// HandleErrorGin maps domain errors to HTTP status codes and writes the JSON error body.
// Validation errors keep their ordered violations; unknown errors never leak their text.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	m := mapError(err)
	resp := ErrorResponse{Error: m.code, Message: m.message}
	if resp.Message == "" {
		resp.Message = err.Error()
	}

	var validationErr *apperrors.ValidationError
	if apperrors.As(err, &validationErr) {
		resp.Message = "The request failed validation"
		resp.Violations = validationErr.Violations
	}

	if logger != nil {
		level := slog.LevelWarn
		if m.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", m.status),
			slog.String("error_code", m.code),
			slog.Any("error", err),
		)
	}

	c.JSON(m.status, resp)
}

// HandleBadRequestGin writes a 400 for bodies or parameters that could not be decoded.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	writeClientError(c, http.StatusBadRequest, "bad_request", err, logger)
}

// HandleValidationErrorGin writes a 422 for decoded input that fails validation outside the
// use cases, such as pagination parameters.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	writeClientError(c, http.StatusUnprocessableEntity, "validation_error", err, logger)
}

func writeClientError(c *gin.Context, status int, code string, err error, logger *slog.Logger) {
	if logger != nil {
		logger.WarnContext(c.Request.Context(), "rejected request",
			slog.Int("status_code", status),
			slog.String("error_code", code),
			slog.Any("error", err),
		)
	}
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}
