// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package apperr defines the centralized error handling framework for the
// auth server.
//
// It provides a rich error type that bridges the gap between low-level
// storage errors and the flat `{error: "<message>"}` bodies every handler
// reports. Every error that leaves the service layer should be wrapped as
// an [AppError] to ensure consistent API responses.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is a machine-readable classification of an [AppError], matching the
// error taxonomy handlers and middleware reason about.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindAuthMissing        Kind = "auth-missing"
	KindAuthInvalid        Kind = "auth-invalid"
	KindCredentialMismatch Kind = "credential-mismatch"
	KindNotVerified        Kind = "not-verified"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not-found"
	KindConflict           Kind = "conflict"
	KindRateExceeded       Kind = "rate-exceeded"
	KindInternal           Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindValidation:         http.StatusBadRequest,
	KindAuthMissing:        http.StatusUnauthorized,
	KindAuthInvalid:        http.StatusUnauthorized,
	KindCredentialMismatch: http.StatusUnauthorized,
	KindNotVerified:        http.StatusForbidden,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindConflict:           http.StatusConflict,
	KindRateExceeded:       http.StatusTooManyRequests,
	KindInternal:           http.StatusInternalServerError,
}

// AppError is the canonical error type for the auth server.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to
// clients to avoid leaking internal implementation details.
type AppError struct {
	Kind Kind
	// Message is the human-readable string rendered verbatim as {error: Message}.
	Message string
	// Cause is the underlying error, used for server-side logging only.
	Cause error
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus maps the error's Kind to its HTTP response status.
func (e *AppError) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// # Constructors

func NotFound(resource string) *AppError {
	return New(KindNotFound, resource+" not found")
}

func AuthMissing(msg string) *AppError {
	return New(KindAuthMissing, msg)
}

func AuthInvalid(msg string) *AppError {
	return New(KindAuthInvalid, msg)
}

func CredentialMismatch(msg string) *AppError {
	return New(KindCredentialMismatch, msg)
}

func NotVerified(msg string) *AppError {
	return New(KindNotVerified, msg)
}

func Forbidden(msg string) *AppError {
	return New(KindForbidden, msg)
}

func Conflict(msg string) *AppError {
	return New(KindConflict, msg)
}

func ValidationError(msg string) *AppError {
	return New(KindValidation, msg)
}

// RateExceeded creates a 429 [AppError] with the limiter's fixed message.
func RateExceeded() *AppError {
	return New(KindRateExceeded, "Too many requests")
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side
// error. The cause is stored for logging but never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: "An unexpected error occurred",
		Cause:   cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
