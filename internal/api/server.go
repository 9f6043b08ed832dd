// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package api wires together the ambient HTTP middleware stack, the
// request pipeline, the path router, and the domain handlers into a
// runnable [http.Server].
//
// Architecture:
//
//   - This package is the topmost composition root.
//   - Only this package and cmd/keywardd are allowed to import net/http
//     server primitives directly.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/keyward/keyward/internal/pipeline"
	"github.com/keyward/keyward/internal/platform/constants"
	"github.com/keyward/keyward/internal/platform/middleware"
	"github.com/keyward/keyward/internal/platform/respond"
	"github.com/keyward/keyward/internal/resources"
	"github.com/keyward/keyward/internal/router"
	"github.com/keyward/keyward/internal/users/auth"
)

// # Server Definition

// Server wraps the assembled net/http handler chain and the [http.Server].
// It is constructed once in main.go with every dependency injected.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// Handlers groups the domain-specific HTTP handler sets mounted onto the
// router.
type Handlers struct {
	Auth      *auth.Handler
	Resources *resources.Handler
}

// NewServer assembles the router, the request pipeline, and the ambient
// middleware stack around it.
func NewServer(log *slog.Logger, serverID string, limiter pipeline.Limiter, authenticator pipeline.Authenticator, h Handlers) *Server {
	rtr := router.New()
	h.Auth.Register(rtr)
	h.Resources.Register(rtr)

	requestPipeline := pipeline.New(
		pipeline.Enhancement,
		pipeline.BodyParser,
		pipeline.RateLimit(limiter),
		pipeline.BearerAuth(authenticator),
		dispatch(rtr),
	)

	var handler http.Handler = &pipelineHandler{pipeline: requestPipeline}
	handler = middleware.PanicRecovery(log)(handler)
	handler = middleware.ServerID(serverID)(handler)
	handler = middleware.StructuredLogger(log)(handler)
	handler = middleware.RequestID()(handler)

	return &Server{
		log: log,
		httpServer: &http.Server{
			Handler:           handler,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Pipeline Mounting

// pipelineHandler adapts a [*pipeline.Pipeline] into an [http.Handler]: it
// builds the per-request [pipeline.Context], runs every stage, and renders
// a [pipeline.Failed] outcome through [respond.Error]. A [pipeline.Responded]
// outcome means some stage already wrote the response body directly.
type pipelineHandler struct {
	pipeline *pipeline.Pipeline
}

func (h *pipelineHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	ctx := &pipeline.Context{Writer: writer, Request: request}

	result := h.pipeline.Run(ctx)
	if result.Outcome == pipeline.Failed {
		respond.Error(writer, request, result.Err)
	}
}

// dispatch is the pipeline's final stage: it resolves the request to a
// registered route and invokes its handler, translating a route miss into
// 404 and a handler error into a [pipeline.Failed] result for the outer
// finaliser to render.
func dispatch(rtr *router.Router) pipeline.Middleware {
	return func(ctx *pipeline.Context) pipeline.Result {
		handler, params, ok := rtr.Match(ctx.Request.Method, ctx.Request.URL.Path)
		if !ok {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Not Found"})
		}

		ctx.Params = params
		if err := handler(ctx); err != nil {
			return pipeline.Fail(err)
		}
		return pipeline.Done()
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server on listener addr. It blocks until
// the server is closed or an error occurs.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer.Addr = addr
	s.log.Info("server starting", slog.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Serve runs the HTTP server on an already-bound listener. cmd/keywardd
// uses this instead of ListenAndServe so it can pre-bind the listener
// itself and retry with the next candidate port on a bind failure,
// something http.Server's own ListenAndServe cannot be interrupted
// mid-listen to do.
func (s *Server) Serve(listener net.Listener) error {
	s.log.Info("server starting", slog.String("addr", listener.Addr().String()))
	return s.httpServer.Serve(listener)
}

// Shutdown gracefully stops the server, waiting up to timeout for
// in-flight requests to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
