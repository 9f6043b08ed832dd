// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package ctxkey defines typed context keys used by the ambient middleware
// stack (request tracing and logging).
//
// Using a private, unexported type for keys prevents collisions with
// third-party packages that might store values under the same string key.
package ctxkey

// key is an unexported type used for context keys to ensure type safety.
type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
