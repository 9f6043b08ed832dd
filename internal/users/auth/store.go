// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package auth

import "time"

// UserRepository defines the persistence contract for user accounts,
// backed by the sharded filesystem layout ShardDir describes.
type UserRepository interface {
	// Get returns the user named name, or ok=false if no such user exists.
	Get(name string) (user *User, ok bool, err error)

	// Save validates name's pattern and persists user's info document.
	Save(user *User) error

	// Delete removes the user's info document. A missing user is a no-op.
	Delete(name string) error

	// ListNames returns every username found under the user tree, sorted
	// ascending, by scanning for info.json documents.
	ListNames() ([]string, error)
}

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// TokenRecord is one entry of the TokenStore's in-memory map.
type TokenRecord struct {
	Token   string
	Subject string
	Expiry  time.Time
	Kind    TokenKind
}

// TokenPair is the {accessToken, refreshToken} result of minting new
// credentials for a subject.
type TokenPair struct {
	AccessToken    string
	RefreshToken   string
	AccessExpiry   time.Time
	RefreshExpiry  time.Time
}

// AuthFailureKind classifies why a bearer token failed to resolve to its
// subject. Every kind renders as the same client-facing 401; the
// distinction exists for server-side logs.
type AuthFailureKind string

const (
	FailureTokenUnknown   AuthFailureKind = "token-unknown"
	FailureTokenExpired   AuthFailureKind = "token-expired"
	FailureSubjectMissing AuthFailureKind = "subject-missing"
)

// TokenRepository owns the in-memory token map and its per-user on-disk
// mirror. Memory is the state of truth during a run; disk exists so a
// restart can rehydrate it.
type TokenRepository interface {
	// LoadAll eagerly walks the user tree and rehydrates the in-memory map
	// from every tokens.json document. Called once at startup.
	LoadAll() error

	// Mint generates a fresh access/refresh pair for subject, persists
	// both into subject's tokens.json, and registers them in memory.
	Mint(subject string) (TokenPair, error)

	// Lookup returns the in-memory record for token, if any.
	Lookup(token string) (TokenRecord, bool)

	// CheckExpiry evaluates token's lifetime against now; if expired, it
	// self-heals by deleting the record (memory + disk) and returns the
	// expired=true. Callers use this before trusting a Lookup hit.
	CheckExpiry(record TokenRecord) (expired bool, err error)

	// Delete removes a single token from memory and its subject's
	// tokens.json.
	Delete(token string) error

	// ClearSubjectTokens removes every token belonging to subject, from
	// memory and disk.
	ClearSubjectTokens(subject string) error
}

// RotationRegistry owns the per-user refresh-token chain topology,
// independent of TokenRepository's expiry bookkeeping. The two reference
// the same refresh tokens by string value, never by pointer.
type RotationRegistry interface {
	// Load rehydrates the in-memory chain map from the on-disk snapshot.
	// Called once at startup.
	Load() error

	// Register unconditionally inserts a new chain node.
	Register(token, subject string, previous *string) error

	// Validate reports whether token exists, belongs to subject, and has
	// not exceeded the refresh-token horizon. Expired nodes are removed
	// on observation.
	Validate(token, subject string) (bool, error)

	// Invalidate deletes token's node, then walks and deletes its entire
	// ancestor chain (previous, previous.previous, …) until a missing
	// predecessor stops the walk.
	Invalidate(token string) error

	// ClearSubjectTokens deletes every node belonging to subject.
	ClearSubjectTokens(subject string) error

	// Cleanup sweeps every node whose horizon has elapsed.
	Cleanup() error

	// Snapshot persists the full in-memory chain map to its single
	// on-disk document.
	Snapshot() error
}
