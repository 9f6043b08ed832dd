// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package constants centralizes the fixed values referenced across the
// platform layer: server timing, token lifetimes, rate-limit defaults,
// and the header/JSON field names the wire format depends on.
package constants

import "time"

// # Metadata

const (
	AppName    = "keywardd"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// MaxPortSelectionAttempts bounds how many candidate ports cmd/keywardd
	// will try in a row before giving up, so a persistently occupied range
	// cannot loop forever.
	MaxPortSelectionAttempts = 32
)

// # Token Lifetimes

const (
	// AccessTokenTTL is the lifetime of a minted access token.
	AccessTokenTTL = 1 * time.Hour

	// RefreshTokenTTL is the lifetime of a minted refresh token, and the
	// horizon RotationRegistry uses to validate a chain link.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RandomTokenBytes is the number of cryptographically random bytes read
	// before hex-encoding and digesting into a token.
	RandomTokenBytes = 32
)

// # Rate Limiting

const (
	// DefaultRateLimitMaxAttempts is the number of requests allowed per window
	// before RateLimiter reports Exceeded.
	DefaultRateLimitMaxAttempts = 10

	// DefaultRateLimitWindow is the sliding window RateLimiter measures attempts against.
	DefaultRateLimitWindow = 1 * time.Second

	// RateLimitSweepInterval is how often stale rate-limit records are evicted from memory.
	RateLimitSweepInterval = 1 * time.Minute

	// RateLimitRecordTTL is how long an idle rate-limit record survives before sweep reclaims it.
	RateLimitRecordTTL = 5 * time.Minute
)

// # Headers

const (
	// HeaderServerID names the response header bound once per server instance.
	HeaderServerID = "X-Server-ID"

	// HeaderRequestID names the per-request correlation header.
	HeaderRequestID = "X-Request-ID"

	// HeaderForwardedFor names the header the rate-limiting pipeline stage
	// consults for the client's apparent address.
	HeaderForwardedFor = "X-Forwarded-For"

	// HeaderAuthorization is the standard bearer-credential header.
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldError = "error"
)
