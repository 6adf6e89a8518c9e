package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type handler[I, O any] = func(context.Context, *I) (*O, error)

// reported calls report with every error returned by h. A nil report leaves h as is.
func reported[I, O any](h handler[I, O], report func(context.Context, error)) handler[I, O] {
	if report == nil {
		return h
	}
	return func(ctx context.Context, in *I) (*O, error) {
		out, err := h(ctx, in)
		if err != nil {
			report(ctx, err)
		}
		return out, err
	}
}

// withErrors documents the error statuses an operation may answer with.
func withErrors(statuses ...int) func(*huma.Operation) {
	return func(op *huma.Operation) { op.Errors = statuses }
}

func withStatus(status int) func(*huma.Operation) {
	return func(op *huma.Operation) { op.DefaultStatus = status }
}

// ErrorModel is the body of every error response.
// Only the message is written to clients; the cause is kept for logging.
type ErrorModel struct {
	Message string `json:"error" example:"Contact not found" doc:"Short description of the error"`

	status int
	cause  error
}

var _ huma.StatusError = (*ErrorModel)(nil)

func (e *ErrorModel) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *ErrorModel) GetStatus() int { return e.status }

// Level is the level the error is logged at: error for 5XX, warn below.
func (e *ErrorModel) Level() slog.Level {
	if e.status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

func (e *ErrorModel) Unwrap() error { return e.cause }

// NewError has the signature of [huma.NewError] and is meant to replace it, so that
// errors raised by huma itself share the same body. Request validation failures
// are reported as 400 rather than 422.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	return &ErrorModel{Message: msg, status: status, cause: errors.Join(errs...)}
}
