// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package sec provides the cryptographic primitives the auth domain builds
// on: a single digest/token derivation used for password hashing and
// opaque bearer tokens alike, plus the flat role model consulted by
// admin-only endpoints.
package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// # Digest Derivation

// ShortDigest returns the SHA-256 of the UTF-8 encoding of input, rendered
// as URL-safe base64 with padding stripped. Password hashing calls this
// directly on the plain-text password: deliberately simple, stronger KDFs
// are left to an integrator.
func ShortDigest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RandomToken draws 32 cryptographically random bytes, hex-encodes them,
// and passes the result through ShortDigest to produce an opaque,
// fixed-length token.
func RandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return ShortDigest(hex.EncodeToString(buf)), nil
}

// HashPassword derives the stored form of a plain-text password.
func HashPassword(plainTextPassword string) string {
	return ShortDigest(plainTextPassword)
}

// CheckPassword reports whether a plain-text password matches a stored digest.
func CheckPassword(plainTextPassword, storedDigest string) bool {
	return ShortDigest(plainTextPassword) == storedDigest
}
