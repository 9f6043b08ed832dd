// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/platform/sec"
)

func TestShortDigest_StableAndURLSafe(t *testing.T) {
	first := sec.ShortDigest("hello")
	second := sec.ShortDigest("hello")
	assert.Equal(t, first, second)

	// SHA-256 is 32 bytes; unpadded base64 renders it in 43 characters.
	assert.Len(t, first, 43)
	assert.False(t, strings.ContainsAny(first, "+/="))
}

func TestShortDigest_DistinctInputsDiffer(t *testing.T) {
	assert.NotEqual(t, sec.ShortDigest("alice"), sec.ShortDigest("bob"))
}

func TestRandomToken_UniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := sec.RandomToken()
		require.NoError(t, err)
		assert.False(t, seen[token], "token %q repeated", token)
		assert.False(t, strings.ContainsAny(token, "+/="))
		seen[token] = true
	}
}

func TestCheckPassword(t *testing.T) {
	digest := sec.HashPassword("p@ssw0rd")
	assert.True(t, sec.CheckPassword("p@ssw0rd", digest))
	assert.False(t, sec.CheckPassword("wrong", digest))
}
