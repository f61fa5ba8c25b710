// Package api is the REST client for the Fish Alchemy server.
// Every call returns a typed Result for anything the server answered and an
// error only when no usable answer came back. HTTP statuses are mapped to
// log records in one place so screens do not repeat the policy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

// SessionCookie is the cookie the server issues on login.
const SessionCookie = "session_token"

// DefaultTimeout bounds a single request when no other timeout is set.
const DefaultTimeout = 15 * time.Second

const loginPath = "/auth/login"

// Client is a Fish Alchemy API client bound to one server.
type Client struct {
	base           *url.URL
	baseURL        string
	http           *http.Client
	logger         *slog.Logger
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// if the client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		if cp.Jar == nil {
			cp.Jar = c.http.Jar
		}
		c.http = &cp
	}
}

// WithLogger sets the logger that receives the status policy's records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithUnauthorizedHook runs fn whenever the server answers 401.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse API URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("API URL %q must be http or https", baseURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		base:    base,
		baseURL: base.String(),
		http:    &http.Client{Jar: jar, Timeout: DefaultTimeout},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetUnauthorizedHook replaces the 401 hook after construction.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionToken returns the current session cookie, or "".
func (c *Client) SessionToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == SessionCookie {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken restores a session cookie saved by an earlier run.
func (c *Client) SetSessionToken(token string) {
	if token == "" {
		return
	}
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: SessionCookie, Value: token, Path: "/"}})
}

// ClearSession forgets the session cookie locally.
func (c *Client) ClearSession() {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: SessionCookie, Path: "/", MaxAge: -1}})
}

// Do sends one request and decodes the server's answer into a Result.
// The error is non-nil only for transport failures, 5xx statuses and
// undecodable success bodies.
func Do[T any](ctx context.Context, c *Client, method, path string, body any) (Result[T], error) {
	status, raw, err := c.send(ctx, method, path, body)
	if err != nil {
		return Result[T]{}, err
	}
	return decode[T](c, method, path, status, raw)
}

// validatable is implemented by every request DTO.
type validatable interface {
	Validate() []FieldError
}

// submit validates req locally before sending it, so a bad form never
// costs a round trip.
func submit[T any](ctx context.Context, c *Client, method, path string, req validatable) (Result[T], error) {
	if errs := req.Validate(); len(errs) > 0 {
		c.logger.Debug("Request failed validation", "method", method, "path", path, "errors", len(errs))
		return Fail[T](http.StatusBadRequest, errs...), nil
	}
	return Do[T](ctx, c, method, path, req)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, nil, err
		}
		c.logger.Error("Could not reach the server", "method", method, "path", path, "request_id", requestID, "err", err)
		return 0, nil, fmt.Errorf("failed to %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read %s %s: %w", method, path, err)
	}
	c.logger.Debug("request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)
	return resp.StatusCode, raw, nil
}

func decode[T any](c *Client, method, path string, status int, raw []byte) (Result[T], error) {
	if status >= http.StatusInternalServerError {
		c.logger.Error("Internal Server Error", "method", method, "path", path, "status", status)
		return Result[T]{}, &StatusError{Status: status, Method: method, Path: path}
	}

	env, err := parseEnvelope[T](raw)
	if status >= http.StatusBadRequest {
		var errs []FieldError
		if err == nil {
			errs = env.Errors
		}
		return rejected[T](c, method, path, status, errs), nil
	}
	if err != nil {
		c.logger.Error("Unreadable response", "method", method, "path", path, "err", err)
		return Result[T]{}, fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	if env.HasErrors || len(env.Errors) > 0 {
		return Fail[T](status, env.Errors...), nil
	}
	r := Ok(env.Data)
	r.status = status
	return r, nil
}

// rejected applies the 4xx policy.
func rejected[T any](c *Client, method, path string, status int, errs []FieldError) Result[T] {
	switch status {
	case http.StatusUnauthorized:
		c.logger.Info("Session rejected", "method", method, "path", path)
		if len(errs) == 0 {
			errs = []FieldError{{Message: "Sign in."}}
		}
		if c.onUnauthorized != nil && path != loginPath {
			c.onUnauthorized()
		}
	case http.StatusForbidden:
		c.logger.Warn("You are not authorized to perform this action", "method", method, "path", path)
		if len(errs) == 0 {
			errs = []FieldError{{Message: "You are not authorized to perform this action"}}
		}
	case http.StatusNotFound:
		c.logger.Error("Not found", "method", method, "path", path)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		c.logger.Debug("Request rejected", "method", method, "path", path, "errors", len(errs))
	default:
		c.logger.Warn("Request rejected", "method", method, "path", path, "status", status)
	}
	return Fail[T](status, errs...)
}

type envelope[T any] struct {
	Data      T
	Errors    []FieldError
	HasErrors bool
}

// parseEnvelope accepts the standard {data, errors, has_errors} body, a
// bare payload, or a {"detail": ...} error body.
func parseEnvelope[T any](raw []byte) (envelope[T], error) {
	var env envelope[T]
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return env, nil
	}

	var fields map[string]json.RawMessage
	if raw[0] != '{' || json.Unmarshal(raw, &fields) != nil || !isEnvelope(fields) {
		if detail, ok := fields["detail"]; ok {
			env.Errors = parseDetail(detail)
			env.HasErrors = true
			return env, nil
		}
		if err := json.Unmarshal(raw, &env.Data); err != nil {
			return env, err
		}
		return env, nil
	}

	if data, ok := fields["data"]; ok && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, &env.Data); err != nil {
			return env, err
		}
	}
	if errs, ok := fields["errors"]; ok && !bytes.Equal(errs, []byte("null")) {
		if err := json.Unmarshal(errs, &env.Errors); err != nil {
			return env, err
		}
	}
	for _, key := range []string{"has_errors", "hasErrors"} {
		if v, ok := fields[key]; ok {
			var b bool
			if json.Unmarshal(v, &b) == nil && b {
				env.HasErrors = true
			}
		}
	}
	return env, nil
}

func isEnvelope(fields map[string]json.RawMessage) bool {
	for _, key := range []string{"data", "errors", "has_errors", "hasErrors"} {
		if _, ok := fields[key]; ok {
			return true
		}
	}
	return false
}

// parseDetail reads FastAPI's detail field: a string, or a list of
// {loc, msg} validation entries.
func parseDetail(raw json.RawMessage) []FieldError {
	var msg string
	if json.Unmarshal(raw, &msg) == nil {
		return []FieldError{{Message: msg}}
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) != nil || len(items) == 0 {
		return []FieldError{{Message: string(raw)}}
	}
	out := make([]FieldError, 0, len(items))
	for _, it := range items {
		fe := FieldError{Message: it.Msg}
		if n := len(it.Loc); n > 0 {
			if name, ok := it.Loc[n-1].(string); ok && name != "body" {
				fe.Property = name
			}
		}
		out = append(out, fe)
	}
	return out
}
