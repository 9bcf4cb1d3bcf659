// Package api is the storefront client's gateway to the ShopEasy REST API.
// It attaches the current bearer credential to every call that requires one
// and translates credential rejection into a single distinguishable error,
// ErrSessionExpired, so callers can separate "the session is dead" from every
// other kind of failure.
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
	"strings"

	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
	"github.com/atikur-web-dev/shopeasy/pkg/httpclient"
)

// ErrSessionExpired signals that the server rejected the attached credential.
// It is the only error that may trigger session invalidation; every other
// error is contextual and must leave the session alone.
var ErrSessionExpired = errors.New("session expired")

// TokenSource supplies the current bearer token. An empty string means no
// session is active and the call goes out unauthenticated.
type TokenSource func() string

// Client calls the ShopEasy API and decodes its response envelope.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	token   TokenSource
	logger  *slog.Logger
}

// New creates an API client. The token source may return "" for guest calls.
func New(baseURL string, http *httpclient.CircuitBreakerClient, token TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		token:   token,
		logger:  logger,
	}
}

// envelope mirrors the httputil response wrapper used by every API endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// Get issues an authenticated GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, true)
}

// Post issues an authenticated POST and decodes the envelope data into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, true)
}

// PostAnonymous issues a POST with no credential attached, even when a
// session is active. Credential-exchange endpoints (login, register) use it
// so that a 401 is always contextual and can never read as session expiry.
func (c *Client) PostAnonymous(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, false)
}

// Put issues an authenticated PUT and decodes the envelope data into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out, true)
}

// Delete issues an authenticated DELETE and decodes the envelope data into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, withToken bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var token string
	if withToken {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		// The server rejected a credential we attached. Unauthorized
		// responses to calls that carried no credential (a bad login,
		// a guest browsing a protected page) stay contextual and are
		// handled below.
		io.Copy(io.Discard, resp.Body)
		return ErrSessionExpired
	}

	if resp.StatusCode >= 400 {
		return httpclient.ParseResponseError(resp, "shopeasy-api")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	if !env.Success {
		msg := "request failed"
		if env.Error != nil {
			msg = env.Error.Message
		}
		return apperrors.Internal(fmt.Errorf("api: unexpected failure envelope: %s", msg))
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("api: decode response data: %w", err)
		}
	}
	return nil
}
