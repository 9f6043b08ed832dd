// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package access_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyward/keyward/internal/access"
	"github.com/keyward/keyward/internal/platform/store"
)

func writeRaw(t *testing.T, s *store.Store, path, content string) {
	t.Helper()
	full := filepath.Join(s.Root, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestEvaluator_GlobalWildcardGrantsAccess(t *testing.T) {
	s := store.New(t.TempDir())
	writeRaw(t, s, ".access", "* rwd /\n")

	ev := access.New(s)
	ok, err := ev.Check("alice", "users/al/ic/alice/access.txt", "/notes.json", access.LevelWrite)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluator_NoMatchDenies(t *testing.T) {
	s := store.New(t.TempDir())
	ev := access.New(s)

	ok, err := ev.Check("alice", "users/al/ic/alice/access.txt", "/notes.json", access.LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_UserRuleGrantsOverGlobalDeny(t *testing.T) {
	s := store.New(t.TempDir())
	writeRaw(t, s, "users/al/ic/alice/access.txt", "alice r /private/alice\n")

	ev := access.New(s)
	ok, err := ev.Check("alice", "users/al/ic/alice/access.txt", "/private/alice/notes.json", access.LevelRead)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluator_GroupRuleResolvesMembership(t *testing.T) {
	s := store.New(t.TempDir())
	writeRaw(t, s, ".group", "editors alice bob\n")
	writeRaw(t, s, ".access", "editors w /docs/\n")

	ev := access.New(s)
	ok, err := ev.Check("alice", "users/al/ic/alice/access.txt", "/docs/x.json", access.LevelWrite)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Check("carol", "users/ca/ro/carol/access.txt", "/docs/x.json", access.LevelWrite)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluator_GroupIndirectionOneLevel(t *testing.T) {
	s := store.New(t.TempDir())
	writeRaw(t, s, ".group", "core alice\nall .core bob\n")
	writeRaw(t, s, ".access", "all r /shared/\n")

	ev := access.New(s)
	ok, err := ev.Check("alice", "users/al/ic/alice/access.txt", "/shared/x", access.LevelRead)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluator_TargetTrailingSlashBoundary(t *testing.T) {
	r := access.Rule{Subject: "*", Access: "r", Target: "test/"}
	assert.False(t, r.Matches("/test", access.LevelRead))
	assert.True(t, r.Matches("/test/x", access.LevelRead))
}

func TestEvaluator_BareTargetMatchesEqualPath(t *testing.T) {
	r := access.Rule{Subject: "*", Access: "r", Target: "/test"}
	assert.True(t, r.Matches("/test", access.LevelRead))
	assert.True(t, r.Matches("/test/x", access.LevelRead))
}

func TestEvaluator_Info(t *testing.T) {
	s := store.New(t.TempDir())
	writeRaw(t, s, ".group", "editors alice\n")
	writeRaw(t, s, ".access", "editors w /docs/\n* r /\n")
	writeRaw(t, s, "users/al/ic/alice/access.txt", "alice d /private/alice\n")

	ev := access.New(s)
	info, err := ev.Info("alice", "users/al/ic/alice/access.txt")
	require.NoError(t, err)

	assert.Len(t, info.UserAccess, 1)
	assert.Len(t, info.GroupRules, 1)
	assert.Len(t, info.GlobalRules, 1)
	assert.Contains(t, info.Groups, "editors")
}
