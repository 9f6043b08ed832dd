// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package pipeline implements the server's request-processing chain as a
// sum type: every middleware returns a [Result] telling the interpreter
// whether to continue to the next stage or stop because a response was
// already written or an error occurred.
//
// The fixed stage order for the auth server configuration is: request
// enhancement, body parsing, rate limiting, bearer authentication, route
// dispatch — each mounted as a [Middleware] on a [Pipeline] in that order.
package pipeline

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/keyward/keyward/internal/platform/validate"
)

// Outcome classifies what a [Middleware] did.
type Outcome int

const (
	// Continue means the middleware did its work and the chain should
	// proceed to the next stage.
	Continue Outcome = iota
	// Responded means the middleware already wrote a response; no further
	// stage should run, and no error should be logged.
	Responded
	// Failed means the middleware encountered an error; the chain stops
	// and the caller is responsible for rendering it.
	Failed
)

// Result is returned by every [Middleware] call.
type Result struct {
	Outcome Outcome
	Err     error
}

// Next signals the chain should continue.
func Next() Result { return Result{Outcome: Continue} }

// Done signals a response has already been written; the chain must stop
// without rendering anything further. Surfacing "already handled" as a
// distinguished result instead of a sentinel error means the interpreter
// can never accidentally double-write.
func Done() Result { return Result{Outcome: Responded} }

// Fail signals the chain should stop because of err.
func Fail(err error) Result { return Result{Outcome: Failed, Err: err} }

// Context carries per-request state through the pipeline: the captured
// route parameters, the decoded body, the caller's apparent address, and
// (once bearer auth has run) the authenticated subject. Subject is typed
// as `any` to avoid this package depending on the users/auth domain type;
// handlers type-assert it back.
type Context struct {
	Writer  http.ResponseWriter
	Request *http.Request

	Params  map[string]string
	Body    any
	BodyRaw string

	ClientIP string
	Token    string
	Subject  any

	responded bool
}

// JSON writes payload as a JSON response with the given status and marks
// the context as having committed a response, so no later stage may write
// again.
func (c *Context) JSON(status int, payload any) Result {
	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.Writer.WriteHeader(status)
	_ = json.NewEncoder(c.Writer).Encode(payload)
	c.responded = true
	return Done()
}

// Text writes a text/plain response with the given status.
func (c *Context) Text(status int, body string) Result {
	c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Writer.WriteHeader(status)
	_, _ = c.Writer.Write([]byte(body))
	c.responded = true
	return Done()
}

// NoBody writes the given status with an empty body.
func (c *Context) NoBody(status int) Result {
	c.Writer.WriteHeader(status)
	c.responded = true
	return Done()
}

// HasResponded reports whether a response has already been committed.
func (c *Context) HasResponded() bool { return c.responded }

// Middleware is one stage of the pipeline.
type Middleware func(*Context) Result

// Pipeline runs an ordered chain of middlewares, stopping at the first
// non-Continue [Result].
type Pipeline struct {
	stages []Middleware
}

// New builds a Pipeline from stages, run in the given order.
func New(stages ...Middleware) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes every stage in order against ctx and returns the first
// non-Continue result, or [Next] if every stage continued.
func (p *Pipeline) Run(ctx *Context) Result {
	for _, stage := range p.stages {
		result := stage(ctx)
		if result.Outcome != Continue {
			return result
		}
	}
	return Next()
}

// # Stage: Enhancement

// Enhancement is the pipeline's first stage. The response helpers it
// would install are already methods on [*Context], so the stage is a
// no-op kept so the chain's registration reads in its canonical order.
func Enhancement(ctx *Context) Result {
	return Next()
}

// # Stage: Body Parsing

var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// BodyParser reads the entire request body for POST/PUT/PATCH and decodes
// it according to Content-Type: application/json decodes to a generic
// value (malformed JSON falls back to the raw string rather than failing
// the request outright — handlers that require a shape reject it during
// their own validation); application/x-www-form-urlencoded decodes to a
// string map; anything else is kept as the raw string. Non-body methods
// get an empty object.
func BodyParser(ctx *Context) Result {
	if !bodyMethods[ctx.Request.Method] {
		ctx.Body = map[string]any{}
		return Next()
	}

	raw, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		return Fail(err)
	}
	_ = ctx.Request.Body.Close()
	ctx.BodyRaw = string(raw)

	contentType := ctx.Request.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch mediaType {
	case "application/json":
		if len(raw) == 0 {
			ctx.Body = map[string]any{}
			return Next()
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			ctx.Body = ctx.BodyRaw
			return Next()
		}
		ctx.Body = decoded
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(ctx.BodyRaw)
		if err != nil {
			ctx.Body = ctx.BodyRaw
			return Next()
		}
		form := make(map[string]string, len(values))
		for k := range values {
			form[k] = values.Get(k)
		}
		ctx.Body = form
	default:
		ctx.Body = ctx.BodyRaw
	}

	return Next()
}

// DecodeBodyInto re-marshals the already-parsed ctx.Body into target. It
// lets JSON-shaped handlers keep using strongly typed request structs
// without re-reading the (already consumed) request body. A body that
// cannot take the target's shape (including the raw-string fallback for
// malformed JSON) reports as a validation failure.
func DecodeBodyInto(ctx *Context, target any) error {
	data, err := json.Marshal(ctx.Body)
	if err != nil {
		return validate.ErrInvalidJSON
	}
	if err := json.Unmarshal(data, target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}
