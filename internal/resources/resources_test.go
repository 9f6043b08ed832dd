// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package resources_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/access"
	"github.com/keyward/keyward/internal/pipeline"
	"github.com/keyward/keyward/internal/platform/apperr"
	"github.com/keyward/keyward/internal/platform/store"
	"github.com/keyward/keyward/internal/resources"
	"github.com/keyward/keyward/internal/router"
	"github.com/keyward/keyward/internal/users/auth"
)

func newRouter(t *testing.T, accessBody string) *router.Router {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".access"), []byte(accessBody), 0o644))

	s := store.New(dir)
	h := resources.NewHandler(s, access.New(s))

	r := router.New()
	h.Register(r)
	return r
}

func dispatch(t *testing.T, r *router.Router, method, path string, subject any, body any) error {
	t.Helper()
	handler, params, ok := r.Match(method, path)
	require.True(t, ok)

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	ctx := &pipeline.Context{
		Writer:  rec,
		Request: req,
		Params:  params,
		Subject: subject,
		Body:    body,
	}
	return handler(ctx)
}

func TestResources_PostThenGetRoundTrips(t *testing.T) {
	r := newRouter(t, "* rwd /\n")
	alice := &auth.User{Name: "alice"}

	require.NoError(t, dispatch(t, r, http.MethodPost, "/private/notes.json", alice, map[string]any{"value": 1}))
	require.NoError(t, dispatch(t, r, http.MethodGet, "/private/notes.json", alice, nil))
}

func TestResources_UnauthenticatedRequestFails(t *testing.T) {
	r := newRouter(t, "* rwd /\n")

	err := dispatch(t, r, http.MethodGet, "/private/notes.json", nil, nil)

	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthMissing, apperr.As(err).Kind)
}

func TestResources_NoMatchingRuleForbidsAccess(t *testing.T) {
	r := newRouter(t, "alice r /other\n")
	alice := &auth.User{Name: "alice"}

	err := dispatch(t, r, http.MethodGet, "/private/notes.json", alice, nil)

	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.As(err).Kind)
}

func TestResources_ReadOnlyRuleRejectsWrite(t *testing.T) {
	r := newRouter(t, "alice r /\n")
	alice := &auth.User{Name: "alice"}

	err := dispatch(t, r, http.MethodPost, "/private/notes.json", alice, map[string]any{"value": 1})

	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.As(err).Kind)
}

func TestResources_DeleteMissingResourceReturns404(t *testing.T) {
	r := newRouter(t, "* rwd /\n")
	alice := &auth.User{Name: "alice"}

	err := dispatch(t, r, http.MethodDelete, "/private/missing.json", alice, nil)

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.As(err).Kind)
}
