// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package auth

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"github.com/keyward/keyward/internal/access"
	"github.com/keyward/keyward/internal/platform/apperr"
	"github.com/keyward/keyward/internal/platform/sec"
	"github.com/keyward/keyward/internal/platform/validate"
	"github.com/keyward/keyward/pkg/pointer"
)

// Service composes the user, token, rotation, and access-control
// repositories into the business rules behind every endpoint in the
// external interface table: signup, verification, signin, refresh,
// password reset, signout, account deletion, and the user/access
// projections.
type Service struct {
	users    UserRepository
	tokens   TokenRepository
	rotation RotationRegistry
	access   *access.Evaluator

	clearTokensOnReset bool
}

// NewService wires a Service over its four collaborator repositories.
// clearTokensOnReset controls whether a successful password reset also
// revokes every existing token and rotation node for that user.
func NewService(users UserRepository, tokens TokenRepository, rotation RotationRegistry, accessEvaluator *access.Evaluator, clearTokensOnReset bool) *Service {
	return &Service{
		users:              users,
		tokens:             tokens,
		rotation:           rotation,
		access:             accessEvaluator,
		clearTokensOnReset: clearTokensOnReset,
	}
}

// Projection is the externally visible shape of a User, shaped by the
// viewer's relationship to the account: full record minus secrets for
// admins, the account owner, and public accounts; name/email/createdAt
// only for everyone else. UpdatedAt is a pointer so the minimal tier
// omits the field entirely instead of rendering a zero timestamp.
type Projection struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Verified  bool       `json:"verified,omitempty"`
	Roles     []string   `json:"roles,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// # Signup / Verification

// Signup creates an unverified user, generating a six-digit numeric
// verification code persisted on the record. Delivering that code to the
// user is left to an integrator.
func (s *Service) Signup(username, email, password string) error {
	v := &validate.Validator{}
	v.Required("username", username).Username("username", username)
	v.Required("email", email).Email("email", email)
	v.Required("password", password)
	if err := v.Err(); err != nil {
		return err
	}

	if _, ok, err := s.users.Get(username); err != nil {
		return apperr.Internal(err)
	} else if ok {
		return apperr.Conflict("User already exists")
	}

	code, err := generateCode()
	if err != nil {
		return apperr.Internal(err)
	}

	now := time.Now()
	user := &User{
		Name:             username,
		Email:            email,
		PasswordHash:     sec.HashPassword(password),
		Verified:         false,
		VerificationCode: code,
		Roles:            nil,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.users.Save(user); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ConfirmSignup validates a signup verification code, marks the user
// verified, and mints their first credential pair.
func (s *Service) ConfirmSignup(username, code string) (TokenPair, error) {
	user, ok, err := s.getUserOr404(username)
	if err != nil || !ok {
		return TokenPair{}, err
	}

	if user.Verified {
		return TokenPair{}, apperr.ValidationError("User already verified")
	}
	if user.VerificationCode != code {
		return TokenPair{}, apperr.CredentialMismatch("Invalid verification code")
	}

	user.Verified = true
	user.VerificationCode = ""
	user.UpdatedAt = time.Now()
	if err := s.users.Save(user); err != nil {
		return TokenPair{}, apperr.Internal(err)
	}

	return s.mintAndRegister(username, nil)
}

// DeleteUnverified removes the named user's info document. It does not
// check whether the signup was ever confirmed.
func (s *Service) DeleteUnverified(username string) error {
	_, ok, err := s.getUserOr404(username)
	if err != nil || !ok {
		return err
	}
	if err := s.users.Delete(username); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// # Signin

// Signin authenticates a password and mints a credential pair. The 404
// returned for an unknown user intentionally carries the same message as
// the 401 for a wrong password, to avoid revealing account existence.
func (s *Service) Signin(username, password string) (TokenPair, error) {
	user, ok, err := s.users.Get(username)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	if !ok {
		return TokenPair{}, apperr.New(apperr.KindNotFound, "Invalid password or username")
	}

	if !user.Verified {
		return TokenPair{}, apperr.NotVerified("Account not verified")
	}
	if !sec.CheckPassword(password, user.PasswordHash) {
		return TokenPair{}, apperr.CredentialMismatch("Invalid password or username")
	}

	return s.mintAndRegister(username, nil)
}

// # Refresh

// Refresh authenticates a presented refresh token, validates it against
// the rotation chain, and mints a replacement pair whose predecessor is
// the presented token. When replace is true the presented token's entire
// ancestor chain is invalidated, so a stolen older token in the chain can
// no longer be redeemed.
func (s *Service) Refresh(presentedToken string, replace bool) (TokenPair, error) {
	user, record, err := s.authenticate(presentedToken)
	if err != nil {
		return TokenPair{}, err
	}
	if record.Kind != KindRefresh {
		return TokenPair{}, apperr.AuthInvalid("Invalid refresh token")
	}

	valid, err := s.rotation.Validate(presentedToken, user.Name)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	if !valid {
		return TokenPair{}, apperr.AuthInvalid("Invalid refresh token")
	}

	pair, err := s.mintAndRegister(user.Name, pointer.To(presentedToken))
	if err != nil {
		return TokenPair{}, err
	}

	if replace {
		if err := s.rotation.Invalidate(presentedToken); err != nil {
			return TokenPair{}, apperr.Internal(err)
		}
	}

	return pair, nil
}

// # Password Reset

// Forgot generates a six-digit numeric reset code for an existing user.
func (s *Service) Forgot(username string) error {
	user, ok, err := s.getUserOr404(username)
	if err != nil || !ok {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return apperr.Internal(err)
	}

	user.ResetCode = code
	user.UpdatedAt = time.Now()
	if err := s.users.Save(user); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Reset validates a reset code and installs a new password, optionally
// revoking every existing credential for the account first.
func (s *Service) Reset(username, code, password string) (TokenPair, error) {
	user, ok, err := s.users.Get(username)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	if !ok {
		return TokenPair{}, apperr.New(apperr.KindNotFound, "Invalid reset code")
	}
	if user.ResetCode == "" || user.ResetCode != code {
		return TokenPair{}, apperr.CredentialMismatch("Invalid reset code")
	}

	user.PasswordHash = sec.HashPassword(password)
	user.ResetCode = ""
	user.UpdatedAt = time.Now()
	if err := s.users.Save(user); err != nil {
		return TokenPair{}, apperr.Internal(err)
	}

	if s.clearTokensOnReset {
		if err := s.tokens.ClearSubjectTokens(username); err != nil {
			return TokenPair{}, apperr.Internal(err)
		}
		if err := s.rotation.ClearSubjectTokens(username); err != nil {
			return TokenPair{}, apperr.Internal(err)
		}
	}

	return s.mintAndRegister(username, nil)
}

// # Session Lifecycle

// Signout revokes every token and rotation node belonging to subject.
func (s *Service) Signout(subject string) error {
	if err := s.tokens.ClearSubjectTokens(subject); err != nil {
		return apperr.Internal(err)
	}
	if err := s.rotation.ClearSubjectTokens(subject); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// DeleteAccount removes the user record and cascades token/rotation
// cleanup.
func (s *Service) DeleteAccount(username string) error {
	_, ok, err := s.getUserOr404(username)
	if err != nil || !ok {
		return err
	}

	if err := s.users.Delete(username); err != nil {
		return apperr.Internal(err)
	}
	if err := s.tokens.ClearSubjectTokens(username); err != nil {
		return apperr.Internal(err)
	}
	if err := s.rotation.ClearSubjectTokens(username); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// # Projections

// GetUser resolves target's visibility-tiered projection relative to
// requester: admins and the account owner see everything but the
// account's secrets; a public account shows the same to anyone; everyone
// else sees only name, email, and createdAt.
func (s *Service) GetUser(requester *User, target string) (Projection, error) {
	user, ok, err := s.users.Get(target)
	if err != nil {
		return Projection{}, apperr.Internal(err)
	}
	if !ok {
		return Projection{}, apperr.NotFound("User")
	}

	if requester != nil && (requester.Name == target || sec.IsAdmin(requester.Roles)) {
		return fullProjection(user), nil
	}
	if user.IsPublic() {
		return fullProjection(user), nil
	}
	return Projection{Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt}, nil
}

func fullProjection(u *User) Projection {
	return Projection{
		Name:      u.Name,
		Email:     u.Email,
		Verified:  u.Verified,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
		UpdatedAt: pointer.To(u.UpdatedAt),
	}
}

// ListUsers returns every username, admin-only.
func (s *Service) ListUsers(requester *User) ([]string, error) {
	if requester == nil || !sec.IsAdmin(requester.Roles) {
		return nil, apperr.Forbidden("Admins only")
	}

	names, err := s.users.ListNames()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	sort.Strings(names)
	return names, nil
}

// AccessInfo projects the caller's resolved access-control summary.
func (s *Service) AccessInfo(username string) (access.Info, error) {
	info, err := s.access.Info(username, AccessPath(username))
	if err != nil {
		return access.Info{}, apperr.Internal(err)
	}
	return info, nil
}

// # Bearer Resolution

// Authenticate resolves a bearer token to its subject [*User], satisfying
// the pipeline's Authenticator contract.
func (s *Service) Authenticate(token string) (any, error) {
	user, _, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authenticate implements the token resolution algorithm: look the token
// up, self-heal it if its lifetime has elapsed, then load its subject.
func (s *Service) authenticate(token string) (*User, TokenRecord, error) {
	record, ok := s.tokens.Lookup(token)
	if !ok {
		return nil, TokenRecord{}, authFailure(FailureTokenUnknown)
	}

	expired, err := s.tokens.CheckExpiry(record)
	if err != nil {
		return nil, TokenRecord{}, apperr.Internal(err)
	}
	if expired {
		return nil, TokenRecord{}, authFailure(FailureTokenExpired)
	}

	user, ok, err := s.users.Get(record.Subject)
	if err != nil {
		return nil, TokenRecord{}, apperr.Internal(err)
	}
	if !ok {
		// A live token whose subject vanished is a data-integrity signal,
		// not just a stale credential.
		slog.Warn("token_subject_missing", slog.String("subject", record.Subject))
		return nil, TokenRecord{}, authFailure(FailureSubjectMissing)
	}

	return user, record, nil
}

// authFailure renders every auth failure kind as the same client-facing
// 401 body, keeping the kind on the cause for server-side logs only.
func authFailure(kind AuthFailureKind) *apperr.AppError {
	failure := apperr.AuthInvalid("Invalid or expired token")
	failure.Cause = fmt.Errorf("token authentication failed: %s", kind)
	return failure
}

func (s *Service) mintAndRegister(subject string, previousRefresh *string) (TokenPair, error) {
	pair, err := s.tokens.Mint(subject)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	if err := s.rotation.Register(pair.RefreshToken, subject, previousRefresh); err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	return pair, nil
}

func (s *Service) getUserOr404(username string) (*User, bool, error) {
	user, ok, err := s.users.Get(username)
	if err != nil {
		return nil, false, apperr.Internal(err)
	}
	if !ok {
		return nil, false, apperr.NotFound("User")
	}
	return user, true, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
