// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package ratelimit

import (
	"net/http"
	"time"
)

// BruteForce is the path-scoped alternative to [Limiter]: the same
// sliding-window core, keyed by the composite of client address and
// request path rather than client address alone, so hammering one
// sensitive endpoint doesn't exhaust the budget other routes need from
// the same IP.
type BruteForce struct {
	*Limiter
}

// NewBruteForce constructs a BruteForce guard sharing [Limiter]'s
// sliding-window semantics.
func NewBruteForce(maxAttempts int, window time.Duration) *BruteForce {
	return &BruteForce{Limiter: New(maxAttempts, window)}
}

// Key combines a client address and request path into the composite key
// BruteForce tracks attempts under.
func Key(clientAddr, path string) string {
	return clientAddr + "|" + path
}

// OverLimitHandler responds to a request whose (client, path) key has
// exceeded its budget. The default, used when the integrator supplies
// none, answers 429 with a text/plain "Too Many Requests" body.
type OverLimitHandler func(http.ResponseWriter, *http.Request)

// DefaultOverLimitHandler is the fallback [OverLimitHandler].
func DefaultOverLimitHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte("Too Many Requests"))
}
