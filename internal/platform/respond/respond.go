// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package respond centralizes how the server writes HTTP responses.
//
// Handler bodies are flat JSON objects — `{accessToken, refreshToken}`,
// `{message}`, `{error: "..."}` — with no enclosing envelope, per the
// endpoint table the handlers implement.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/keyward/keyward/internal/platform/apperr"
	"github.com/keyward/keyward/internal/platform/ctxkey"
)

// ErrorBody is the JSON shape every error response renders.
type ErrorBody struct {
	Error string `json:"error"`
}

// # Response Helpers

// JSON writes payload as the JSON response body with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 response with payload as the flat JSON body.
func OK(writer http.ResponseWriter, payload interface{}) {
	JSON(writer, http.StatusOK, payload)
}

// Created writes a 201 response with payload as the flat JSON body.
func Created(writer http.ResponseWriter, payload interface{}) {
	JSON(writer, http.StatusCreated, payload)
}

// NoContent writes a response with no body at the given status.
func NoContent(writer http.ResponseWriter, statusCode int) {
	writer.WriteHeader(statusCode)
}

// # Error Handling

// Error converts any Go error into the flat `{error: "..."}` JSON shape.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError

	if !errors.As(err, &appError) {
		logger := loggerFromContext(request)
		logger.ErrorContext(request.Context(), "unhandled_error_wrapped",
			slog.String("error", err.Error()),
			slog.String("request_id", requestIDFromContext(request)),
		)
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus() >= 500 {
		logger := loggerFromContext(request)
		logger.ErrorContext(request.Context(), "server_error",
			slog.String("kind", string(appError.Kind)),
			slog.String("request_id", requestIDFromContext(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus(), ErrorBody{Error: appError.Message})
}

func loggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

func requestIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
