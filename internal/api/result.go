package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrServer marks 5xx responses.
var ErrServer = errors.New("server error")

// FieldError is one entry of the envelope's errors list. An empty Property
// means the error is not tied to a form field.
type FieldError struct {
	Property string `json:"property"`
	Message  string `json:"message"`
}

// Result is the decoded outcome of a call the server answered. It is either
// ok with a value, or failed with one or more field errors.
type Result[T any] struct {
	value  T
	errs   []FieldError
	status int
}

// Ok builds a successful result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, status: http.StatusOK}
}

// Fail builds a failed result. An empty error list gets a generic message
// so a failed result is never mistaken for success.
func Fail[T any](status int, errs ...FieldError) Result[T] {
	if len(errs) == 0 {
		msg := http.StatusText(status)
		if msg == "" {
			msg = "request failed"
		}
		errs = []FieldError{{Message: msg}}
	}
	return Result[T]{errs: errs, status: status}
}

// Acknowledged drops r's payload, keeping its status and errors.
func Acknowledged[T any](r Result[T]) Result[bool] {
	if r.OK() {
		return Result[bool]{value: true, status: r.status}
	}
	return Result[bool]{errs: r.errs, status: r.status}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return len(r.errs) == 0
}

// Value returns the payload and whether the call succeeded.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.OK()
}

// Unwrap returns the payload, or a *RejectedError describing the failure.
func (r Result[T]) Unwrap() (T, error) {
	if !r.OK() {
		var zero T
		return zero, &RejectedError{Status: r.status, Errors: r.errs}
	}
	return r.value, nil
}

// Errors returns the server's error list, empty on success.
func (r Result[T]) Errors() []FieldError {
	return r.errs
}

// Status returns the HTTP status the result came from. Client-side
// validation failures report 400.
func (r Result[T]) Status() int {
	return r.status
}

// FieldErrors indexes errors by property for forms. Multiple messages on
// one property are joined; errors with no property are keyed by "".
func (r Result[T]) FieldErrors() map[string]string {
	out := make(map[string]string, len(r.errs))
	for _, e := range r.errs {
		if prev, ok := out[e.Property]; ok {
			out[e.Property] = prev + "; " + e.Message
			continue
		}
		out[e.Property] = e.Message
	}
	return out
}

// Message flattens the errors into a single line for toasts.
func (r Result[T]) Message() string {
	return joinErrors(r.errs)
}

// RejectedError is a business or validation failure reported by the server.
type RejectedError struct {
	Status int
	Errors []FieldError
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected (%d): %s", e.Status, joinErrors(e.Errors))
}

// StatusError is a response the client could not treat as data.
type StatusError struct {
	Status int
	Method string
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *StatusError) Unwrap() error {
	if e.Status >= 500 {
		return ErrServer
	}
	return nil
}

func joinErrors(errs []FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Property != "" {
			parts = append(parts, e.Property+": "+e.Message)
			continue
		}
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}
