// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/access"
	"github.com/keyward/keyward/internal/platform/apperr"
	"github.com/keyward/keyward/internal/platform/store"
	"github.com/keyward/keyward/internal/users/auth"
)

// harness wires the same four repositories cmd/keywardd assembles, rooted
// at a fresh temp directory per test.
type harness struct {
	users    *auth.FSUserRepository
	tokens   *auth.FSTokenRepository
	rotation *auth.FSRotationRegistry
	service  *auth.Service
}

func newHarness(t *testing.T, clearTokensOnReset bool) *harness {
	t.Helper()
	s := store.New(t.TempDir())

	users := auth.NewFSUserRepository(s)
	tokens := auth.NewFSTokenRepository(s, users)
	rotation := auth.NewFSRotationRegistry(s)
	evaluator := access.New(s)

	return &harness{
		users:    users,
		tokens:   tokens,
		rotation: rotation,
		service:  auth.NewService(users, tokens, rotation, evaluator, clearTokensOnReset),
	}
}

func signupAndVerify(t *testing.T, h *harness, username string) auth.TokenPair {
	t.Helper()
	require.NoError(t, h.service.Signup(username, username+"@example.com", "p@ssw0rd"))

	user, ok, err := h.users.Get(username)
	require.NoError(t, err)
	require.True(t, ok)

	pair, err := h.service.ConfirmSignup(username, user.VerificationCode)
	require.NoError(t, err)
	return pair
}

func TestSignupConfirmSignin(t *testing.T) {
	h := newHarness(t, true)

	pair := signupAndVerify(t, h, "alice")
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	subject, err := h.service.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject.(*auth.User).Name)
}

func TestSignupDuplicateConflicts(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.service.Signup("alice", "a@x.com", "p@ssw0rd"))

	err := h.service.Signup("alice", "a@x.com", "p@ssw0rd")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.As(err).Kind)
}

func TestConfirmSignupRejectsBadCode(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.service.Signup("alice", "a@x.com", "p@ssw0rd"))

	_, err := h.service.ConfirmSignup("alice", "000000")
	require.Error(t, err)
	assert.Equal(t, apperr.KindCredentialMismatch, apperr.As(err).Kind)
}

func TestSigninRejectsUnverified(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.service.Signup("alice", "a@x.com", "p@ssw0rd"))

	_, err := h.service.Signin("alice", "p@ssw0rd")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotVerified, apperr.As(err).Kind)
}

func TestSigninUnknownUserAndWrongPasswordShareWording(t *testing.T) {
	h := newHarness(t, true)
	signupAndVerify(t, h, "alice")

	_, unknownErr := h.service.Signin("bob", "whatever")
	require.Error(t, unknownErr)
	assert.Equal(t, apperr.KindNotFound, apperr.As(unknownErr).Kind)

	_, wrongPassErr := h.service.Signin("alice", "wrong")
	require.Error(t, wrongPassErr)
	assert.Equal(t, apperr.KindCredentialMismatch, apperr.As(wrongPassErr).Kind)

	assert.Equal(t, apperr.As(unknownErr).Message, apperr.As(wrongPassErr).Message)
}

func TestRefreshRotationInvalidatesChainOnReplace(t *testing.T) {
	h := newHarness(t, true)
	first := signupAndVerify(t, h, "alice")

	second, err := h.service.Refresh(first.RefreshToken, true)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The original refresh token's ancestor chain is invalidated; reusing
	// it must fail even though it has not expired.
	_, err = h.service.Refresh(first.RefreshToken, false)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthInvalid, apperr.As(err).Kind)

	// The newly minted refresh token is still good.
	third, err := h.service.Refresh(second.RefreshToken, false)
	require.NoError(t, err)
	assert.NotEmpty(t, third.AccessToken)
}

func TestSignoutRevokesAllTokens(t *testing.T) {
	h := newHarness(t, true)
	pair := signupAndVerify(t, h, "alice")

	require.NoError(t, h.service.Signout("alice"))

	_, err := h.service.Authenticate(pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthInvalid, apperr.As(err).Kind)

	_, err = h.service.Refresh(pair.RefreshToken, false)
	require.Error(t, err)
}

func TestResetPasswordClearsTokensWhenConfigured(t *testing.T) {
	h := newHarness(t, true)
	pair := signupAndVerify(t, h, "alice")

	require.NoError(t, h.service.Forgot("alice"))
	user, ok, err := h.users.Get("alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, user.ResetCode)

	newPair, err := h.service.Reset("alice", user.ResetCode, "newpassw0rd")
	require.NoError(t, err)
	assert.NotEmpty(t, newPair.AccessToken)

	_, err = h.service.Authenticate(pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthInvalid, apperr.As(err).Kind)

	_, err = h.service.Signin("alice", "newpassw0rd")
	require.NoError(t, err)
}

func TestResetPasswordPreservesTokensWhenNotConfigured(t *testing.T) {
	h := newHarness(t, false)
	pair := signupAndVerify(t, h, "alice")

	require.NoError(t, h.service.Forgot("alice"))
	user, _, _ := h.users.Get("alice")

	_, err := h.service.Reset("alice", user.ResetCode, "newpassw0rd")
	require.NoError(t, err)

	_, err = h.service.Authenticate(pair.AccessToken)
	require.NoError(t, err)
}

func TestResetPasswordRejectsWrongCode(t *testing.T) {
	h := newHarness(t, true)
	signupAndVerify(t, h, "alice")
	require.NoError(t, h.service.Forgot("alice"))

	_, err := h.service.Reset("alice", "000000", "irrelevant")
	require.Error(t, err)
	assert.Equal(t, apperr.KindCredentialMismatch, apperr.As(err).Kind)
}

func TestDeleteAccountCascadesTokensAndRotation(t *testing.T) {
	h := newHarness(t, true)
	pair := signupAndVerify(t, h, "alice")

	require.NoError(t, h.service.DeleteAccount("alice"))

	_, ok, err := h.users.Get("alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.service.Authenticate(pair.AccessToken)
	require.Error(t, err)

	valid, err := h.rotation.Validate(pair.RefreshToken, "alice")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestGetUserVisibilityTiers(t *testing.T) {
	h := newHarness(t, true)
	signupAndVerify(t, h, "alice")

	aliceUser, _, _ := h.users.Get("alice")

	// Self sees everything.
	proj, err := h.service.GetUser(aliceUser, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", proj.Email)

	// A stranger sees only the public-tier projection.
	signupAndVerify(t, h, "bob")
	bobUser, _, _ := h.users.Get("bob")
	proj, err = h.service.GetUser(bobUser, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", proj.Name)
	assert.Zero(t, proj.Verified)
}

func TestListUsersAdminOnly(t *testing.T) {
	h := newHarness(t, true)
	signupAndVerify(t, h, "alice")
	aliceUser, _, _ := h.users.Get("alice")

	_, err := h.service.ListUsers(aliceUser)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.As(err).Kind)

	aliceUser.Roles = []string{"admin"}
	require.NoError(t, h.users.Save(aliceUser))

	names, err := h.service.ListUsers(aliceUser)
	require.NoError(t, err)
	assert.Contains(t, names, "alice")
}

func TestLoadAllRehydratesTokensAcrossRestart(t *testing.T) {
	s := store.New(t.TempDir())
	users := auth.NewFSUserRepository(s)
	tokens := auth.NewFSTokenRepository(s, users)
	rotation := auth.NewFSRotationRegistry(s)
	evaluator := access.New(s)
	service := auth.NewService(users, tokens, rotation, evaluator, true)

	require.NoError(t, service.Signup("alice", "a@x.com", "p@ssw0rd"))
	user, _, _ := users.Get("alice")
	pair, err := service.ConfirmSignup("alice", user.VerificationCode)
	require.NoError(t, err)

	// Simulate a restart: fresh in-memory repositories over the same root.
	reloadedTokens := auth.NewFSTokenRepository(s, users)
	reloadedRotation := auth.NewFSRotationRegistry(s)
	require.NoError(t, reloadedTokens.LoadAll())
	require.NoError(t, reloadedRotation.Load())

	reloadedService := auth.NewService(users, reloadedTokens, reloadedRotation, evaluator, true)
	subject, err := reloadedService.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject.(*auth.User).Name)

	valid, err := reloadedRotation.Validate(pair.RefreshToken, "alice")
	require.NoError(t, err)
	assert.True(t, valid)
}
