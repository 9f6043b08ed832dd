// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package router implements a small path-pattern dispatcher: segments
// separated by "/", a ":name" segment capturing one non-"/" token into a
// named parameter, and a terminal "*" matching any suffix (including
// empty). Every other segment matches literally.
//
// Patterns are compiled once into a regexp plus an ordered parameter-name
// list. Matching scans registered patterns in registration order and the
// first match wins — there is no trie or priority sort.
package router

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/keyward/keyward/internal/pipeline"
)

// Handler is a route's terminal function. It receives the pipeline
// Context already populated with the parsed body, client IP, and
// authenticated subject from the earlier pipeline stages; Match fills in
// ctx.Params before the dispatch stage invokes it.
type Handler func(*pipeline.Context) error

type route struct {
	method  string
	pattern *regexp.Regexp
	params  []string
	handler Handler
	raw     string
}

// Router is a method-dispatched, registration-ordered collection of path
// patterns. It is safe to build up via Handle/Get/Post/... at startup and
// is not mutated afterward, so no locking is needed for Match.
type Router struct {
	routes []route
}

// New returns an empty Router.
func New() *Router {
	return &Router{}
}

// Handle registers pattern for method. Re-registering the same
// (method, pattern) pair appends a second, unreachable route — callers are
// expected to register each route exactly once.
func (r *Router) Handle(method, pattern string, handler Handler) {
	re, names := compile(pattern)
	r.routes = append(r.routes, route{
		method:  strings.ToUpper(method),
		pattern: re,
		params:  names,
		handler: handler,
		raw:     pattern,
	})
}

func (r *Router) Get(pattern string, handler Handler)    { r.Handle(http.MethodGet, pattern, handler) }
func (r *Router) Post(pattern string, handler Handler)   { r.Handle(http.MethodPost, pattern, handler) }
func (r *Router) Put(pattern string, handler Handler)    { r.Handle(http.MethodPut, pattern, handler) }
func (r *Router) Patch(pattern string, handler Handler)  { r.Handle(http.MethodPatch, pattern, handler) }
func (r *Router) Delete(pattern string, handler Handler) { r.Handle(http.MethodDelete, pattern, handler) }

// Group returns a registrar whose patterns are all mounted under prefix,
// so a handler set can register its routes without repeating its mount
// point.
func (r *Router) Group(prefix string) *Group {
	return &Group{router: r, prefix: strings.TrimSuffix(prefix, "/")}
}

// Group registers routes under a shared path prefix on its parent Router.
type Group struct {
	router *Router
	prefix string
}

// Handle registers pattern (relative to the group's prefix) for method.
func (g *Group) Handle(method, pattern string, handler Handler) {
	g.router.Handle(method, g.prefix+pattern, handler)
}

func (g *Group) Get(pattern string, handler Handler)    { g.Handle(http.MethodGet, pattern, handler) }
func (g *Group) Post(pattern string, handler Handler)   { g.Handle(http.MethodPost, pattern, handler) }
func (g *Group) Put(pattern string, handler Handler)    { g.Handle(http.MethodPut, pattern, handler) }
func (g *Group) Patch(pattern string, handler Handler)  { g.Handle(http.MethodPatch, pattern, handler) }
func (g *Group) Delete(pattern string, handler Handler) { g.Handle(http.MethodDelete, pattern, handler) }

// Match resolves method and path to a registered Handler and its captured
// parameters. HEAD and OPTIONS requests fall back to a registered GET
// route when no explicit handler exists for that exact method.
func (r *Router) Match(method, path string) (Handler, map[string]string, bool) {
	if h, params, ok := r.matchExact(method, path); ok {
		return h, params, true
	}

	if method == http.MethodHead || method == http.MethodOptions {
		if h, params, ok := r.matchExact(http.MethodGet, path); ok {
			return h, params, true
		}
	}

	return nil, nil, false
}

func (r *Router) matchExact(method, path string) (Handler, map[string]string, bool) {
	for _, rt := range r.routes {
		if rt.method != method {
			continue
		}
		m := rt.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		params := make(map[string]string, len(rt.params))
		for i, name := range rt.params {
			params[name] = m[i+1]
		}
		return rt.handler, params, true
	}
	return nil, nil, false
}

// compile turns a pattern like "/auth/signup/:username" or "/private/*"
// into an anchored regexp plus the ordered list of named parameters it
// captures, in encounter order.
func compile(pattern string) (*regexp.Regexp, []string) {
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	var (
		names []string
		parts []string
	)

	for i, seg := range segments {
		switch {
		case seg == "*" && i == len(segments)-1:
			parts = append(parts, "(.*)")
			names = append(names, "*")
		case strings.HasPrefix(seg, ":"):
			names = append(names, seg[1:])
			parts = append(parts, "([^/]+)")
		default:
			parts = append(parts, regexp.QuoteMeta(seg))
		}
	}

	full := "^/" + strings.Join(parts, "/") + "$"
	return regexp.MustCompile(full), names
}
