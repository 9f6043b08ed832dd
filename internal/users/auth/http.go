// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package auth

import (
	"net/http"

	"github.com/keyward/keyward/internal/pipeline"
	"github.com/keyward/keyward/internal/platform/apperr"
	"github.com/keyward/keyward/internal/router"
)

// Handler adapts [Service] to the router's transport contract: decoding
// request bodies, reading route parameters and the bearer subject off the
// pipeline [pipeline.Context], and writing the flat JSON bodies the
// endpoint table prescribes. A non-nil return is handed back by the
// dispatch stage as a failed pipeline result and rendered via
// respond.Error; every success path writes its own response and returns nil.
type Handler struct {
	service *Service
}

// NewHandler wraps service for HTTP dispatch.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts every auth endpoint onto r.
func (h *Handler) Register(r *router.Router) {
	g := r.Group("/auth")

	g.Post("/signup", h.signup)
	g.Put("/signup/:username", h.confirmSignup)
	g.Delete("/signup/:username", h.deleteUnverified)

	g.Post("/signin/:username", h.signin)
	g.Get("/signin/:username", h.getSelf)
	g.Delete("/signin/:username", h.signout)

	g.Put("/refresh/:token", h.refresh)

	g.Post("/forgot/:username", h.forgot)
	g.Put("/forgot/:username", h.reset)

	g.Get("/info", h.listUsers)
	g.Get("/info/:username", h.getUser)

	g.Get("/access/info", h.accessInfo)
}

func subjectOf(ctx *pipeline.Context) *User {
	if u, ok := ctx.Subject.(*User); ok {
		return u
	}
	return nil
}

func requireSubject(ctx *pipeline.Context) (*User, error) {
	u := subjectOf(ctx)
	if u == nil {
		return nil, apperr.AuthMissing("Authentication required")
	}
	return u, nil
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signup(ctx *pipeline.Context) error {
	var req signupRequest
	if err := pipeline.DecodeBodyInto(ctx, &req); err != nil {
		return err
	}

	if err := h.service.Signup(req.Username, req.Email, req.Password); err != nil {
		return err
	}

	ctx.JSON(http.StatusOK, map[string]string{"message": "Verification code sent"})
	return nil
}

type confirmSignupRequest struct {
	Code string `json:"code"`
}

func (h *Handler) confirmSignup(ctx *pipeline.Context) error {
	var req confirmSignupRequest
	if err := pipeline.DecodeBodyInto(ctx, &req); err != nil {
		return err
	}

	pair, err := h.service.ConfirmSignup(ctx.Params["username"], req.Code)
	if err != nil {
		return err
	}

	ctx.JSON(http.StatusOK, map[string]any{
		"message":      "Account verified",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
	return nil
}

func (h *Handler) deleteUnverified(ctx *pipeline.Context) error {
	if err := h.service.DeleteUnverified(ctx.Params["username"]); err != nil {
		return err
	}
	ctx.JSON(http.StatusOK, map[string]string{"message": "Signup removed"})
	return nil
}

type signinRequest struct {
	Password string `json:"password"`
}

func (h *Handler) signin(ctx *pipeline.Context) error {
	var req signinRequest
	if err := pipeline.DecodeBodyInto(ctx, &req); err != nil {
		return err
	}

	pair, err := h.service.Signin(ctx.Params["username"], req.Password)
	if err != nil {
		return err
	}

	ctx.JSON(http.StatusOK, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
	return nil
}

func (h *Handler) getSelf(ctx *pipeline.Context) error {
	requester, err := requireSubject(ctx)
	if err != nil {
		return err
	}

	projection, err := h.service.GetUser(requester, ctx.Params["username"])
	if err != nil {
		return err
	}
	ctx.JSON(http.StatusOK, projection)
	return nil
}

func (h *Handler) signout(ctx *pipeline.Context) error {
	requester, err := requireSubject(ctx)
	if err != nil {
		return err
	}

	if err := h.service.Signout(requester.Name); err != nil {
		return err
	}
	ctx.JSON(http.StatusOK, map[string]string{"message": "Signed out"})
	return nil
}

type refreshRequest struct {
	Replace bool `json:"replace"`
}

func (h *Handler) refresh(ctx *pipeline.Context) error {
	var req refreshRequest
	_ = pipeline.DecodeBodyInto(ctx, &req)

	pair, err := h.service.Refresh(ctx.Params["token"], req.Replace)
	if err != nil {
		return err
	}

	ctx.JSON(http.StatusOK, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
	return nil
}

func (h *Handler) forgot(ctx *pipeline.Context) error {
	if err := h.service.Forgot(ctx.Params["username"]); err != nil {
		return err
	}
	ctx.JSON(http.StatusOK, map[string]string{"message": "Reset code sent"})
	return nil
}

type resetRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (h *Handler) reset(ctx *pipeline.Context) error {
	var req resetRequest
	if err := pipeline.DecodeBodyInto(ctx, &req); err != nil {
		return err
	}

	pair, err := h.service.Reset(ctx.Params["username"], req.Code, req.Password)
	if err != nil {
		return err
	}

	ctx.JSON(http.StatusOK, map[string]any{
		"message":      "Password reset",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
	return nil
}

func (h *Handler) listUsers(ctx *pipeline.Context) error {
	// Admin-only: anonymous and non-admin callers alike get the 403 the
	// role check produces, with no separate 401 tier.
	names, err := h.service.ListUsers(subjectOf(ctx))
	if err != nil {
		return err
	}
	ctx.JSON(http.StatusOK, map[string]any{"users": names})
	return nil
}

func (h *Handler) getUser(ctx *pipeline.Context) error {
	requester, err := requireSubject(ctx)
	if err != nil {
		return err
	}

	projection, err := h.service.GetUser(requester, ctx.Params["username"])
	if err != nil {
		return err
	}
	ctx.JSON(http.StatusOK, projection)
	return nil
}

func (h *Handler) accessInfo(ctx *pipeline.Context) error {
	requester, err := requireSubject(ctx)
	if err != nil {
		return err
	}

	info, err := h.service.AccessInfo(requester.Name)
	if err != nil {
		return err
	}
	ctx.JSON(http.StatusOK, info)
	return nil
}
