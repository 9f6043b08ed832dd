// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package middleware provides the ambient, cross-cutting HTTP processing
// chain that wraps the server's own [router.Router]: request tracing,
// structured logging, and panic recovery.
//
// These concerns sit outside the [pipeline.Pipeline] (request shape
// enhancement, body parsing, rate limiting, bearer auth, dispatch) — they
// apply to every request regardless of which domain route it hits, and
// they never short-circuit on domain-level errors the way the pipeline does.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/keyward/keyward/internal/platform/constants"
	"github.com/keyward/keyward/internal/platform/ctxutil"
	"github.com/keyward/keyward/pkg/uuidv7"
)

// # Request Tracing

// RequestID attaches a correlation ID to every request for log tracing,
// reusing a client-supplied X-Request-ID if present.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			id := request.Header.Get(constants.HeaderRequestID)
			if id == "" {
				id = uuidv7.New()
			}

			ctx := ctxutil.WithRequestID(request.Context(), id)
			writer.Header().Set(constants.HeaderRequestID, id)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Server Identity

// ServerID stamps every response with the header identifying this server
// instance, bound once at process startup.
func ServerID(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set(constants.HeaderServerID, id)
			next.ServeHTTP(writer, request)
		})
	}
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger logs every request's status and latency, and injects a
// per-request sub-logger into the context for downstream handlers to use.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			start := time.Now()
			requestID := ctxutil.GetRequestID(request.Context())

			requestLogger := logger.With(
				slog.String("request_id", requestID),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
			)

			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrapped := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			next.ServeHTTP(wrapped, request.WithContext(ctx))

			latency := time.Since(start)
			level := slog.LevelInfo
			switch {
			case wrapped.status >= 500:
				level = slog.LevelError
			case wrapped.status >= 400:
				level = slog.LevelWarn
			}

			requestLogger.Log(ctx, level, "http_request_finished",
				slog.Int("status", wrapped.status),
				slog.Int64("latency_ms", latency.Milliseconds()),
			)
		})
	}
}

// # Reliability

// PanicRecovery recovers from panics in the handler it wraps (the request
// pipeline, in api.NewServer), logs the stack trace, and answers 500. This sits outside the
// pipeline's own finaliser, which is only responsible for errors a route
// handler *returns*, not a Go panic.
func PanicRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := make([]byte, 4096)
					n := runtime.Stack(stack, false)

					reqLogger := ctxutil.GetLogger(request.Context())
					reqLogger.ErrorContext(request.Context(), "panic_recovered",
						slog.Any("error", rec),
						slog.String("stack", string(stack[:n])),
					)

					writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
					writer.WriteHeader(http.StatusInternalServerError)
					_, _ = writer.Write([]byte("Internal Server Error"))
				}
			}()

			next.ServeHTTP(writer, request)
		})
	}
}
