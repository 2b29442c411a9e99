// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. The mapping from service errors to codes lives in
// writeError (response.go).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "email already registered"
//	}
package handlers

import "github.com/LulDrako/playmarket-docker/internal/http/middleware"

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = middleware.CodeRateLimited
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Input problems detected by the services or the database.
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidReference = "invalid_reference"
	ErrCodeInvalidFormat    = "invalid_format"
)
