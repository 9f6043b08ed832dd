// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

/*
Keywardd is the entry point for the keyward authorization server.

Usage:

	go run cmd/keywardd/main.go

The environment variables are:

	AUTH_PORT                    port spec: a single number, a "min,a,max"-style
	                             list of >=3 candidates, or a "[min,max]" range
	                             (default: 3000)
	AUTH_DATA_DIR                persistence root (default: ./auth-data)
	AUTH_RATE_MAX                RateLimiter max attempts per window (default: 10)
	AUTH_RATE_WINDOW_MS          RateLimiter window in milliseconds (default: 1000)
	AUTH_CLEAR_TOKENS_ON_RESET   clear all tokens on password reset (default: true)
	ENVIRONMENT                  development or production (default: development)
	DEBUG                        enable debug-level logging (default: false)

Startup Sequence:

 1. Logger: initialize structured JSON logging (slog).
 2. Config: load and validate environment variables.
 3. Storage: open the document store and load the token and rotation state.
 4. Bootstrap: create the root admin account on an empty data directory.
 5. Wiring: inject dependencies into domain services/handlers.
 6. Server: bind the first available candidate port and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyward/keyward/internal/access"
	"github.com/keyward/keyward/internal/api"
	"github.com/keyward/keyward/internal/platform/config"
	"github.com/keyward/keyward/internal/platform/constants"
	"github.com/keyward/keyward/internal/platform/store"
	"github.com/keyward/keyward/internal/portselect"
	"github.com/keyward/keyward/internal/ratelimit"
	"github.com/keyward/keyward/internal/resources"
	"github.com/keyward/keyward/internal/users/auth"
	"github.com/keyward/keyward/pkg/uuidv7"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log = log.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	log.Info("keywardd_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Debug {
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})).
			With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}
	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("data_dir", cfg.DataDir),
		slog.String("port_spec", cfg.Port),
	)

	portSpec, err := portselect.Parse(cfg.Port)
	if err != nil {
		return fmt.Errorf("parse port spec: %w", err)
	}

	// # 3. Storage
	docStore := store.New(cfg.DataDir)

	users := auth.NewFSUserRepository(docStore)
	tokens := auth.NewFSTokenRepository(docStore, users)
	rotation := auth.NewFSRotationRegistry(docStore)
	accessEvaluator := access.New(docStore)

	if err := tokens.LoadAll(); err != nil {
		return fmt.Errorf("load token store: %w", err)
	}
	if err := rotation.Load(); err != nil {
		return fmt.Errorf("load rotation registry: %w", err)
	}
	if err := rotation.Cleanup(); err != nil {
		log.Warn("rotation_registry_sweep_failed", slog.Any("error", err))
	}

	// # 4. Bootstrap
	if err := api.Bootstrap(users, tokens, rotation, log); err != nil {
		return fmt.Errorf("bootstrap root account: %w", err)
	}

	// # 5. Wiring
	service := auth.NewService(users, tokens, rotation, accessEvaluator, cfg.ClearTokensOnReset)
	authHandler := auth.NewHandler(service)
	resourcesHandler := resources.NewHandler(docStore, accessEvaluator)

	limiter := ratelimit.New(cfg.RateLimitMaxAttempts, time.Duration(cfg.RateLimitWindowMS)*time.Millisecond)
	serverID := uuidv7.New()

	lifecycle, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	limiter.StartSweeper(lifecycle, constants.RateLimitSweepInterval, constants.RateLimitRecordTTL)

	server := api.NewServer(log, serverID, limiter, service, api.Handlers{
		Auth:      authHandler,
		Resources: resourcesHandler,
	})

	// # 6. Server
	listener, boundPort, err := bindListener(portSpec, log)
	if err != nil {
		return fmt.Errorf("bind listener: %w", err)
	}

	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	fmt.Printf("keywardd listening on http://localhost:%d\n", boundPort)
	log.Info("keywardd_running", slog.Int("port", boundPort))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	log.Info("shutting_down_keywardd", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}

// bindListener walks the candidate ports via [portselect.Spec.Next],
// retrying on an address-already-in-use failure and propagating any other
// bind error immediately, bounded by
// [constants.MaxPortSelectionAttempts] so a persistently occupied range
// cannot loop forever.
func bindListener(spec portselect.Spec, log *slog.Logger) (net.Listener, int, error) {
	prev := 0
	for attempt := 0; attempt < constants.MaxPortSelectionAttempts; attempt++ {
		port, err := spec.Next(prev)
		if err != nil {
			return nil, 0, err
		}

		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			return listener, port, nil
		}

		if !isAddrInUse(err) {
			return nil, 0, err
		}

		log.Warn("port_in_use_retrying", slog.Int("port", port))
		prev = port
	}

	return nil, 0, fmt.Errorf("keywardd: exhausted %d port selection attempts", constants.MaxPortSelectionAttempts)
}

func isAddrInUse(err error) bool {
	var syscallErr *net.OpError
	if errors.As(err, &syscallErr) {
		return errors.Is(syscallErr.Err, syscall.EADDRINUSE)
	}
	return false
}
