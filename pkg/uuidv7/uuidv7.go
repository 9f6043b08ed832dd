// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package uuidv7 wraps google/uuid to generate time-ordered UUIDv7 values.
//
// The server uses it for two distinct, never-conflated identifiers: the
// per-instance X-Server-ID bound once at startup, and the per-request
// X-Request-ID minted by the ambient RequestID middleware.
package uuidv7

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// It panics only if the OS random source is unavailable (extremely rare).
// This is acceptable as OS entropy failure is an unrecoverable system-level error.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// Must generates a new UUIDv7 or panics.
//
// This is an alias for [New] kept for readability and consistency with
// Go's "Must" pattern in call sites.
func Must() string {
	return New()
}
