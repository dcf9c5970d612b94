// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for tenantgate.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: One constructor per authentication/authorization failure kind.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses. The Code values are a client contract and must not change.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Machine-Readable Codes

const (
	CodeAuthTokenMissing       = "AUTH_TOKEN_MISSING"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeTokenInvalid           = "INVALID_TOKEN"
	CodeRefreshTokenMissing    = "REFRESH_TOKEN_MISSING"
	CodeRefreshTokenExpired    = "REFRESH_TOKEN_EXPIRED"
	CodeInvalidRefreshToken    = "INVALID_REFRESH_TOKEN"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeNotAuthenticated       = "USER_NOT_AUTHENTICATED"
	CodeNotAuthorized          = "INSUFFICIENT_PERMISSIONS"
	CodeTenantIDRequired       = "TENANT_ID_REQUIRED"
	CodeEmailAlreadyRegistered = "EMAIL_EXISTS"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"

	CodeNotFound    = "NOT_FOUND"
	CodeValidation  = "VALIDATION_ERROR"
	CodeRateLimited = "RATE_LIMITED"
	CodeInternal    = "INTERNAL_ERROR"
	CodeConflict    = "CONFLICT"
)

// AppError is the canonical error type for the tenantgate API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "TOKEN_EXPIRED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches two AppErrors by Code so sentinel comparisons work on fresh instances.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithCause returns a copy of e carrying cause for server-side logging.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// # Authentication Errors (401)

// AuthTokenMissing is returned when the bearer header is absent or malformed.
func AuthTokenMissing() *AppError {
	return &AppError{Code: CodeAuthTokenMissing, Message: "Authentication token required", HTTPStatus: http.StatusUnauthorized}
}

// TokenExpired is returned when the access token is past its expiry.
func TokenExpired() *AppError {
	return &AppError{Code: CodeTokenExpired, Message: "Access token has expired", HTTPStatus: http.StatusUnauthorized}
}

// TokenInvalid is returned for any access token failure other than expiry.
func TokenInvalid() *AppError {
	return &AppError{Code: CodeTokenInvalid, Message: "Invalid access token", HTTPStatus: http.StatusUnauthorized}
}

// RefreshTokenMissing is returned when no refresh cookie is presented.
func RefreshTokenMissing() *AppError {
	return &AppError{Code: CodeRefreshTokenMissing, Message: "Refresh token not found", HTTPStatus: http.StatusUnauthorized}
}

// RefreshTokenExpired is returned when the refresh token is past its expiry.
func RefreshTokenExpired() *AppError {
	return &AppError{Code: CodeRefreshTokenExpired, Message: "Refresh token has expired", HTTPStatus: http.StatusUnauthorized}
}

// InvalidRefreshToken covers bad signatures, malformed tokens and stale versions.
func InvalidRefreshToken() *AppError {
	return &AppError{Code: CodeInvalidRefreshToken, Message: "Invalid refresh token", HTTPStatus: http.StatusUnauthorized}
}

// UserNotFound is returned when a token references a credential record that no longer exists.
func UserNotFound() *AppError {
	return &AppError{Code: CodeUserNotFound, Message: "User not found", HTTPStatus: http.StatusUnauthorized}
}

// NotAuthenticated is returned by guards that run without a resolved principal.
func NotAuthenticated() *AppError {
	return &AppError{Code: CodeNotAuthenticated, Message: "User not authenticated", HTTPStatus: http.StatusUnauthorized}
}

// InvalidCredentials is returned on a failed login. It never reveals which part was wrong.
func InvalidCredentials() *AppError {
	return &AppError{Code: CodeInvalidCredentials, Message: "Invalid credentials", HTTPStatus: http.StatusUnauthorized}
}

// # Authorization Errors (403)

// NotAuthorized is returned when the principal's role is outside the required set.
func NotAuthorized() *AppError {
	return &AppError{Code: CodeNotAuthorized, Message: "Insufficient permissions", HTTPStatus: http.StatusForbidden}
}

// # Client Errors (4xx)

// TenantIDRequired is returned when no tenant source yields a value.
func TenantIDRequired() *AppError {
	return &AppError{Code: CodeTenantIDRequired, Message: "Tenant ID is required", HTTPStatus: http.StatusBadRequest}
}

// EmailAlreadyRegistered is returned on duplicate registration.
func EmailAlreadyRegistered() *AppError {
	return &AppError{Code: CodeEmailAlreadyRegistered, Message: "Email already registered", HTTPStatus: http.StatusConflict}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found", HTTPStatus: http.StatusNotFound}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, HTTPStatus: http.StatusConflict}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, HTTPStatus: http.StatusBadRequest, Details: details}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
