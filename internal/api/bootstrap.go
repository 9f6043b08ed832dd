// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package api

import (
	"log/slog"
	"time"

	"github.com/keyward/keyward/internal/platform/sec"
	"github.com/keyward/keyward/internal/users/auth"
)

// Bootstrap creates the initial "root" administrator account when the user
// directory is empty — the first-start condition every fresh data
// directory begins in. Subsequent starts find at least one user and are a
// no-op.
func Bootstrap(users auth.UserRepository, tokens auth.TokenRepository, rotation auth.RotationRegistry, log *slog.Logger) error {
	names, err := users.ListNames()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}

	now := time.Now()
	root := &auth.User{
		Name:         "root",
		Email:        "root@localhost",
		PasswordHash: sec.HashPassword("root"),
		Verified:     true,
		Roles:        []string{sec.RoleAdmin},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Save(root); err != nil {
		return err
	}

	pair, err := tokens.Mint(root.Name)
	if err != nil {
		return err
	}
	if err := rotation.Register(pair.RefreshToken, root.Name, nil); err != nil {
		return err
	}

	log.Info("bootstrapped root account", slog.String("username", root.Name))
	return nil
}
