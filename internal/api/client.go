package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"auditctl/pkg/logging"
)

const (
	// DefaultAPIVersion is the REST API version prefix.
	DefaultAPIVersion = "v7"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 60 * time.Second

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-Id"

	// maxErrorBody bounds how much of a failure body is kept for the operator.
	maxErrorBody = 64 << 10
)

// Client talks to the audit service.
// Every call needs a bearer token, see WithSession.
type Client struct {
	baseURL    string
	authorized *http.Client
	newID      func() string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithAuthorizedClient sets the client used for calls that need a bearer token.
func WithAuthorizedClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.authorized = httpClient
	}
}

// WithRequestIDFunc replaces the correlation id generator.
func WithRequestIDFunc(fn func() string) ClientOption {
	return func(c *Client) {
		c.newID = fn
	}
}

// NewHTTPClient builds the transport-level client for the service.
// Audit servers commonly run with self-signed certificates, so verification
// can be disabled explicitly.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		// #nosec G402 -- explicit operator opt-in via server.insecureSkipVerify
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// BaseURL joins the server address and API version.
func BaseURL(address, apiVersion string) string {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return strings.TrimSuffix(address, "/") + "/" + strings.Trim(apiVersion, "/")
}

// NewClient creates a client for baseURL, see BaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSession returns a copy of c that sends authenticated calls through httpClient.
func (c *Client) WithSession(httpClient *http.Client) *Client {
	clone := *c
	clone.authorized = httpClient
	return &clone
}

// BaseURL returns the URL every path is relative to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends body as JSON and decodes a 2xx answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, httpClient *http.Client, method, path string, body, out interface{}) error {
	endpoint := c.baseURL + "/" + strings.TrimPrefix(path, "/")

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := c.newID()
	req.Header.Set(RequestIDHeader, requestID)

	logging.Debug("API", "%s %s (request id %s)", method, endpoint, requestID)

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ClassifyConnectionError(err, endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logging.Debug("API", "%s %s answered %d", method, endpoint, resp.StatusCode)
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// authed performs a call that requires the bearer client.
func (c *Client) authed(ctx context.Context, method, path string, body, out interface{}) error {
	if c.authorized == nil {
		return fmt.Errorf("%s %s requires an authenticated session", method, path)
	}
	return c.do(ctx, c.authorized, method, path, body, out)
}
