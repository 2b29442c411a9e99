// Package services defines the business logic of the marketplace: accounts
// and sessions, the catalog with its document enrichment, orders and the
// engagement documents. This file centralizes the service-level error values
// so that handlers can translate them into HTTP results consistently.
package services

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates that the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrEmailTaken is returned when registering an email already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password; both cases share the message.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden is returned when the principal may not act on a resource.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicate is returned when a unique document key already exists.
	ErrDuplicate = errors.New("resource already exists")

	// ErrInvalidReference is returned when a write references a missing row
	// (e.g. an order line for an unknown game).
	ErrInvalidReference = errors.New("referenced resource does not exist")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports invalid input. It maps to 400 with per-field details.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// invalid builds a single-field ValidationError.
func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}
