// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/keyward/keyward/internal/ratelimit"
)

func TestLimiter_AllowsUnderMax(t *testing.T) {
	l := ratelimit.New(2, time.Second)
	assert.Equal(t, ratelimit.Ok, l.TryAttempt("1.2.3.4"))
	assert.Equal(t, ratelimit.Ok, l.TryAttempt("1.2.3.4"))
}

func TestLimiter_ExceedsAtMax(t *testing.T) {
	l := ratelimit.New(1, time.Second)
	assert.Equal(t, ratelimit.Ok, l.TryAttempt("1.2.3.4"))
	assert.Equal(t, ratelimit.Exceeded, l.TryAttempt("1.2.3.4"))
}

func TestLimiter_ExceedDoesNotResetWindow(t *testing.T) {
	l := ratelimit.New(1, time.Second)
	l.TryAttempt("k")
	assert.Equal(t, ratelimit.Exceeded, l.TryAttempt("k"))
	assert.Equal(t, ratelimit.Exceeded, l.TryAttempt("k"))
}

func TestLimiter_ResetsAfterWindowElapses(t *testing.T) {
	l := ratelimit.New(1, 10*time.Millisecond)
	l.TryAttempt("k")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, ratelimit.Ok, l.TryAttempt("k"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := ratelimit.New(1, time.Second)
	assert.Equal(t, ratelimit.Ok, l.TryAttempt("a"))
	assert.Equal(t, ratelimit.Ok, l.TryAttempt("b"))
}

func TestLimiter_Release(t *testing.T) {
	l := ratelimit.New(1, time.Second)
	l.TryAttempt("k")
	assert.Equal(t, ratelimit.Exceeded, l.TryAttempt("k"))
	l.Release("k")
	assert.Equal(t, ratelimit.Ok, l.TryAttempt("k"))
}

func TestBruteForce_KeyedByClientAndPath(t *testing.T) {
	bf := ratelimit.NewBruteForce(1, time.Second)
	assert.Equal(t, ratelimit.Ok, bf.TryAttempt(ratelimit.Key("1.2.3.4", "/auth/signin/alice")))
	assert.Equal(t, ratelimit.Exceeded, bf.TryAttempt(ratelimit.Key("1.2.3.4", "/auth/signin/alice")))
	assert.Equal(t, ratelimit.Ok, bf.TryAttempt(ratelimit.Key("1.2.3.4", "/auth/signin/bob")))
}
