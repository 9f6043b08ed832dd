// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package ratelimit implements two sliding-window counters: the
// per-client [Limiter] consulted on every request, and the per-(client,
// path) [BruteForce] guard. Both share the same {timestamp, count}
// reset/exceed algorithm; a token-bucket library such as
// golang.org/x/time/rate implements a continuous-refill model and cannot
// express this window's boundary (elapsed window resets the record,
// otherwise count is compared against maxAttempts without resetting the
// window), so the counter is implemented directly.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Status is the verdict of a single attempt.
type Status int

const (
	Ok Status = iota
	Exceeded
)

type record struct {
	timestamp time.Time
	count     int
}

// Limiter is a sliding-window counter keyed by an arbitrary string (a
// client address for [Limiter], a "client|path" composite for the
// brute-force guard [BruteForce]).
type Limiter struct {
	maxAttempts int
	window      time.Duration

	mu      sync.Mutex
	records map[string]*record
}

// New constructs a Limiter with the given maxAttempts and window. A
// maxAttempts <= 0 defaults to 10; a window <= 0 defaults to one second.
func New(maxAttempts int, window time.Duration) *Limiter {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		maxAttempts: maxAttempts,
		window:      window,
		records:     make(map[string]*record),
	}
}

// TryAttempt records one attempt for key and reports whether it is
// allowed under the sliding window.
func (l *Limiter) TryAttempt(key string) Status {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		l.records[key] = &record{timestamp: now, count: 1}
		return Ok
	}

	if now.Sub(rec.timestamp) > l.window {
		rec.timestamp = now
		rec.count = 1
		return Ok
	}

	if rec.count >= l.maxAttempts {
		return Exceeded
	}

	rec.count++
	return Ok
}

// Release removes any record for key, lifting its limit immediately.
func (l *Limiter) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, key)
}

// Sweep removes every record whose window has fully elapsed and which has
// seen no activity since. It is safe to call from a background ticker.
func (l *Limiter) Sweep(idleFor time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, rec := range l.records {
		if now.Sub(rec.timestamp) > idleFor {
			delete(l.records, key)
		}
	}
}

// StartSweeper launches a background goroutine that calls Sweep(idleFor)
// on every tick, until ctx is cancelled. Record growth is not otherwise
// bounded: a client that stops sending requests would never have its
// entry reclaimed.
func (l *Limiter) StartSweeper(ctx context.Context, interval, idleFor time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Sweep(idleFor)
			case <-ctx.Done():
				return
			}
		}
	}()
}
