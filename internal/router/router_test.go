// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package router_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/pipeline"
	"github.com/keyward/keyward/internal/router"
)

func noop(*pipeline.Context) error { return nil }

func TestRouter_LiteralMatch(t *testing.T) {
	r := router.New()
	r.Get("/auth/info", noop)

	h, params, ok := r.Match(http.MethodGet, "/auth/info")
	require.True(t, ok)
	require.NotNil(t, h)
	assert.Empty(t, params)
}

func TestRouter_ParamCapture(t *testing.T) {
	r := router.New()
	r.Put("/auth/signup/:username", noop)

	_, params, ok := r.Match(http.MethodPut, "/auth/signup/alice")
	require.True(t, ok)
	assert.Equal(t, "alice", params["username"])
}

func TestRouter_WildcardSuffix(t *testing.T) {
	r := router.New()
	r.Get("/private/*", noop)

	_, params, ok := r.Match(http.MethodGet, "/private/notes/a.json")
	require.True(t, ok)
	assert.Equal(t, "notes/a.json", params["*"])
}

func TestRouter_HeadFallsBackToGet(t *testing.T) {
	r := router.New()
	r.Get("/private/*", noop)

	_, _, ok := r.Match(http.MethodHead, "/private/notes.json")
	assert.True(t, ok)
}

func TestRouter_OptionsFallsBackToGet(t *testing.T) {
	r := router.New()
	r.Get("/auth/info", noop)

	_, _, ok := r.Match(http.MethodOptions, "/auth/info")
	assert.True(t, ok)
}

func TestRouter_NoMatch(t *testing.T) {
	r := router.New()
	r.Get("/auth/info", noop)

	_, _, ok := r.Match(http.MethodGet, "/nope")
	assert.False(t, ok)
}

func TestRouter_FirstRegistrationWins(t *testing.T) {
	r := router.New()
	calledFirst := false
	calledSecond := false

	r.Get("/auth/:x", func(*pipeline.Context) error { calledFirst = true; return nil })
	r.Get("/auth/info", func(*pipeline.Context) error { calledSecond = true; return nil })

	h, _, ok := r.Match(http.MethodGet, "/auth/info")
	require.True(t, ok)
	_ = h(nil)
	assert.True(t, calledFirst)
	assert.False(t, calledSecond)
}
