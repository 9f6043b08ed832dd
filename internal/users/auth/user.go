// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package auth implements the user identity and credential subsystem: the
// User record, the in-memory token store and rotation registry, and the
// filesystem-backed repositories that keep them consistent across
// restarts.
package auth

import (
	"path"
	"regexp"
	"time"
)

// validUsername is the storage-layer guard on the 3-32 character
// [A-Za-z0-9_-] username pattern. The service layer reports the same rule
// as a 400 before a save ever reaches the repository.
var validUsername = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// User is the account record persisted as each user's info.json. Roles is
// a free-form set of strings; only [sec.RoleAdmin] carries special meaning
// to the server.
type User struct {
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"passwordHash"`
	Verified         bool      `json:"verified"`
	VerificationCode string    `json:"verificationCode,omitempty"`
	ResetCode        string    `json:"resetCode,omitempty"`
	Roles            []string  `json:"roles"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IsPublic reports whether the user has opted into the "public"
// visibility tier: anyone may see their full projection, not just admins
// and the account owner. A plain role named "public" marks the tier,
// since roles are the only extensible classification on a User.
func (u *User) IsPublic() bool {
	for _, r := range u.Roles {
		if r == "public" {
			return true
		}
	}
	return false
}

// # Sharded User Paths

// ShardDir returns the directory a user named name lives under, following
// the "users/al/ic/alice/" scheme: the first two characters, then the
// next two, then the literal name. This keeps any single directory's
// fanout bounded. Names shorter than four characters (the minimum valid
// length is three) use whatever characters exist for the second shard
// segment.
func ShardDir(name string) string {
	first, second := shardSegments(name)
	return path.Join("users", first, second, name)
}

func shardSegments(name string) (string, string) {
	runes := []rune(name)
	first := takeRunes(runes, 0, 2)
	second := takeRunes(runes, 2, 4)
	return first, second
}

func takeRunes(runes []rune, start, end int) string {
	if start >= len(runes) {
		return ""
	}
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

// InfoPath, TokensPath, and AccessPath are the three documents kept under
// each user's shard directory.
func InfoPath(name string) string   { return path.Join(ShardDir(name), "info.json") }
func TokensPath(name string) string { return path.Join(ShardDir(name), "tokens.json") }
func AccessPath(name string) string { return path.Join(ShardDir(name), "access.txt") }
