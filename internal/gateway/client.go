// Package gateway is the single chokepoint for requests to the Baikal
// backend. It injects the bearer token from the session store, tags each
// request with an X-Request-ID, and intercepts authentication failures by
// tearing the session down before the caller sees the error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/baikal-ai/baikalctl/internal/session"
)

// loginPath is exempt from auth-failure interception: a rejected login is
// the caller's problem, not a stale session.
const loginPath = "/auth/login"

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Sessions *session.Store

	// OnAuthFailure runs after the session has been cleared in response to
	// a 401, once per failed call. The command layer uses it to point the
	// user back at login.
	OnAuthFailure func()

	Logger *slog.Logger

	// HTTPClient overrides the default client; tests pass the httptest one.
	HTTPClient *http.Client
}

// Client wraps outbound HTTP calls to the backend. It performs no retries
// and no caching: a single failed call is a single reported failure.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	sessions      *session.Store
	onAuthFailure func()
	log           *slog.Logger
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:       opts.BaseURL,
		httpClient:    httpClient,
		sessions:      opts.Sessions,
		onAuthFailure: opts.OnAuthFailure,
		log:           log,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.New().String())
	if token, ok := c.sessions.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend not reachable (%w)", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && path != loginPath {
		apiErr := drainError(resp)
		// Session teardown completes before the caller observes the
		// rejection, so callers never race a stale token.
		if err := c.sessions.Clear(); err != nil {
			c.log.Warn("clearing session after auth failure", "error", err)
		}
		if c.onAuthFailure != nil {
			c.onAuthFailure()
		}
		return nil, apiErr
	}

	return resp, nil
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues an authenticated POST with a JSON body (nil for empty).
func (c *Client) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// DecodeJSON closes the response body, converts error statuses into
// *APIError, and unmarshals success bodies into v. Pass nil v for
// responses with no body of interest.
func DecodeJSON(resp *http.Response, v any) error {
	if resp.StatusCode >= 400 {
		return drainError(resp)
	}
	defer resp.Body.Close()
	if v == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// drainError reads an error response body into an *APIError. FastAPI-style
// {"detail": "..."} bodies are unwrapped; anything else is kept verbatim.
func drainError(resp *http.Response) *APIError {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("(unreadable body: %v)", err)}
	}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &detail); err == nil && detail.Detail != "" {
		return &APIError{Status: resp.StatusCode, Message: detail.Detail}
	}
	return &APIError{Status: resp.StatusCode, Message: string(data)}
}
