// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package resources implements the /private/* endpoint: a generic JSON
// document namespace gated by the access-control evaluator, kept as its
// own bounded context distinct from user identity.
package resources

import (
	"net/http"
	"path"

	"github.com/keyward/keyward/internal/access"
	"github.com/keyward/keyward/internal/pipeline"
	"github.com/keyward/keyward/internal/platform/apperr"
	"github.com/keyward/keyward/internal/platform/store"
	"github.com/keyward/keyward/internal/router"
	"github.com/keyward/keyward/internal/users/auth"
)

// Handler serves /private/* by consulting the access evaluator for the
// caller's permission at the level the HTTP method implies, then reading
// or writing the backing document through the store.
type Handler struct {
	store  *store.Store
	access *access.Evaluator
}

// NewHandler wraps s and evaluator for /private/* dispatch.
func NewHandler(s *store.Store, evaluator *access.Evaluator) *Handler {
	return &Handler{store: s, access: evaluator}
}

// Register mounts the three /private/* methods onto r. HEAD is served by
// the router's fallback to the GET route.
func (h *Handler) Register(r *router.Router) {
	g := r.Group("/private")
	g.Get("/*", h.get)
	g.Post("/*", h.post)
	g.Delete("/*", h.delete)
}

func documentPath(ctx *pipeline.Context) string {
	return path.Join("private", ctx.Params["*"])
}

func (h *Handler) authorize(ctx *pipeline.Context, level access.Level) (*auth.User, error) {
	requester, ok := ctx.Subject.(*auth.User)
	if !ok || requester == nil {
		return nil, apperr.AuthMissing("Authentication required")
	}

	allowed, err := h.access.Check(requester.Name, auth.AccessPath(requester.Name), ctx.Request.URL.Path, level)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !allowed {
		return nil, apperr.Forbidden("Access denied")
	}
	return requester, nil
}

func (h *Handler) get(ctx *pipeline.Context) error {
	if _, err := h.authorize(ctx, access.LevelRead); err != nil {
		return err
	}

	relPath := documentPath(ctx)

	if ctx.Request.Method == http.MethodHead {
		if _, err := h.store.ReadRaw(relPath); err != nil {
			if err == store.ErrNotFound {
				ctx.NoBody(http.StatusNotFound)
				return nil
			}
			return apperr.Internal(err)
		}
		ctx.NoBody(http.StatusOK)
		return nil
	}

	var document any
	if err := h.store.LoadDocument(relPath, &document); err != nil {
		if err == store.ErrNotFound {
			return apperr.NotFound("Resource")
		}
		return apperr.Internal(err)
	}

	ctx.JSON(http.StatusOK, document)
	return nil
}

func (h *Handler) post(ctx *pipeline.Context) error {
	if _, err := h.authorize(ctx, access.LevelWrite); err != nil {
		return err
	}

	if err := h.store.SaveDocument(documentPath(ctx), ctx.Body); err != nil {
		return apperr.Internal(err)
	}

	ctx.JSON(http.StatusCreated, map[string]bool{"success": true})
	return nil
}

func (h *Handler) delete(ctx *pipeline.Context) error {
	if _, err := h.authorize(ctx, access.LevelDelete); err != nil {
		return err
	}

	relPath := documentPath(ctx)
	if _, err := h.store.ReadRaw(relPath); err != nil {
		if err == store.ErrNotFound {
			return apperr.NotFound("Resource")
		}
		return apperr.Internal(err)
	}

	if err := h.store.DropDocument(relPath); err != nil {
		return apperr.Internal(err)
	}

	ctx.JSON(http.StatusOK, map[string]bool{"success": true})
	return nil
}
