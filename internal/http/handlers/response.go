// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the error envelope, the central error translator and small success helpers.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - Handlers pass service errors to writeError, which owns the mapping from
//     error values to HTTP status and code. Handlers never pick a 5xx code
//     themselves.
//   - `fail()` logs 5xx responses with the request-scoped logger and reports
//     them to Sentry when the Sentry middleware is installed.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_error",
//	  "message": "validation failed",
//	  "details": [{"field": "items[0].quantity", "message": "must be >= 1"}]
//	}
package handlers

import (
	"errors"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/http/middleware"
	"github.com/LulDrako/playmarket-docker/internal/repo"
	"github.com/LulDrako/playmarket-docker/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
	// Per-field problems for validation failures
	Details []services.FieldError `json:"details,omitempty"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg}, nil)
}

func failWith(c *gin.Context, status int, resp ErrorResponse, cause error) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Err(cause).
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
		if hub := sentrygin.GetHubFromContext(c); hub != nil && cause != nil {
			hub.CaptureException(cause)
		}
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// writeError translates err into the error envelope.
func writeError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		failWith(c, http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeValidation,
			Message: "validation failed",
			Details: verr.Fields,
		}, nil)

	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, mongo.ErrNoDocuments):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")

	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
	case errors.Is(err, services.ErrDuplicate),
		repo.IsUniqueViolation(err),
		mongo.IsDuplicateKeyError(err):
		fail(c, http.StatusConflict, ErrCodeConflict, "resource already exists")

	case errors.Is(err, services.ErrInvalidReference),
		repo.IsForeignKeyViolation(err):
		fail(c, http.StatusBadRequest, ErrCodeInvalidReference, "referenced resource does not exist")
	case repo.IsInvalidFormat(err):
		fail(c, http.StatusBadRequest, ErrCodeInvalidFormat, "invalid value format")

	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "invalid or expired token")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "access denied")

	default:
		failWith(c, http.StatusInternalServerError, ErrorResponse{
			Code:    ErrCodeInternal,
			Message: err.Error(),
		}, err)
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// badRequest answers malformed input that never reached a service.
func badRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg)
}
