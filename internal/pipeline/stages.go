// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package pipeline

import (
	"net/http"
	"strings"

	"github.com/keyward/keyward/internal/platform/constants"
	"github.com/keyward/keyward/internal/ratelimit"
)

// # Stage: Rate Limiting

// Limiter is the sliding-window contract [*ratelimit.Limiter] satisfies.
type Limiter interface {
	TryAttempt(key string) ratelimit.Status
}

// RateLimit builds the rate-limiting half of the pipeline's third stage:
// it derives the client's apparent address from the first X-Forwarded-For
// hop (or the connection's remote address) and consults limiter; on
// Exceeded it emits 429 and halts the chain.
func RateLimit(limiter Limiter) Middleware {
	return func(ctx *Context) Result {
		ctx.ClientIP = ClientAddress(ctx.Request)

		if limiter.TryAttempt(ctx.ClientIP) == ratelimit.Exceeded {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
		}
		return Next()
	}
}

// ClientAddress reads the first X-Forwarded-For hop if present, otherwise
// the connection's RemoteAddr.
func ClientAddress(r *http.Request) string {
	if forwarded := r.Header.Get(constants.HeaderForwardedFor); forwarded != "" {
		hop := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if hop != "" {
			return hop
		}
	}
	return r.RemoteAddr
}

// # Stage: Bearer Authentication

// Authenticator resolves a bearer token to its authenticated subject.
// Declared locally, satisfied structurally by the users/auth package's
// Service, so pipeline never imports the domain layer.
type Authenticator interface {
	Authenticate(token string) (any, error)
}

// BearerAuth extracts `Authorization: Bearer <token>` and resolves it to
// a subject via authenticator, attaching the result to ctx.Subject. A
// missing or unresolvable token is not itself a pipeline failure — the
// subject stays nil and individual handlers decide whether
// authentication is required for their route.
func BearerAuth(authenticator Authenticator) Middleware {
	return func(ctx *Context) Result {
		header := ctx.Request.Header.Get(constants.HeaderAuthorization)
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return Next()
		}

		token := strings.TrimPrefix(header, prefix)
		ctx.Token = token

		if subject, err := authenticator.Authenticate(token); err == nil {
			ctx.Subject = subject
		}
		return Next()
	}
}
