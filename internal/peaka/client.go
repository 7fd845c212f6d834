// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package peaka

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/peakabot-tui/internal/config"
	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/util"
)

// Configuration constants for the partner API.
const (
	// DefaultBaseURL is the partner API host.
	DefaultBaseURL = config.DefaultBaseURL

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	DefaultMaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// DefaultRequestsPerSecond paces requests when no config is given.
	DefaultRequestsPerSecond = 5

	// UserAgent identifies the client to the partner API.
	UserAgent = "peakabot/0.1.0"

	apiPrefix = "/api/v1"
)

// Error variables for common partner API errors.
var (
	// ErrUnauthorized indicates the key was rejected (401 or 403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the project or thread does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrResponseTooLarge indicates the body exceeded the configured cap.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrMissingKey indicates a call was made without an API key.
	ErrMissingKey = errors.New("API key not set")
)

// APIError represents a non-2xx response with no matching sentinel.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("peaka API error (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("peaka API error (HTTP %d): %s", e.Status, e.Message)
}

// Client is a client for the Peaka partner API. It is safe for concurrent use.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	limiter          *rate.Limiter
	maxResponseBytes int64
	userAgent        string
	log              zerolog.Logger
}

// NewClient creates a client for baseURL with default settings.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		limiter:          rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
		maxResponseBytes: DefaultMaxResponseSize,
		userAgent:        UserAgent,
		log:              zerolog.Nop(),
	}
}

// NewFromConfig creates a client from the [api] config section.
func NewFromConfig(cfg *config.Config, log zerolog.Logger) *Client {
	return NewClient(cfg.API.BaseURL).
		WithTimeout(cfg.Timeout()).
		WithRateLimit(cfg.API.RequestsPerSecond).
		WithMaxResponseBytes(cfg.API.MaxResponseBytes).
		WithLogger(log)
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests use the
// httptest server's client).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithRateLimit sets requests per second with an equal burst. 0 disables pacing.
func (c *Client) WithRateLimit(rps float64) *Client {
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return c
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithMaxResponseBytes sets the response body cap.
func (c *Client) WithMaxResponseBytes(n int64) *Client {
	if n > 0 {
		c.maxResponseBytes = n
	}
	return c
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log.With().Str("component", "peaka").Logger()
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Info returns the project and user the key belongs to.
// A 2xx response is what makes a key valid.
func (c *Client) Info(ctx context.Context, key string) (*InfoResponse, error) {
	var info InfoResponse
	if err := c.do(ctx, key, http.MethodGet, apiPrefix+"/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Threads lists the agent threads of a project in remote order.
func (c *Client) Threads(ctx context.Context, key, projectID string) ([]ThreadRecord, error) {
	var resp threadsResponse
	path := agentPath(projectID, "threads")
	if err := c.do(ctx, key, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Threads, nil
}

// Thread returns the raw message history of one thread in remote order.
func (c *Client) Thread(ctx context.Context, key, projectID, threadID string) ([]RawMessage, error) {
	var resp historyResponse
	path := agentPath(projectID, "threads", threadID)
	if err := c.do(ctx, key, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result.Values.Messages, nil
}

// Chat posts a user message and returns the messages of the resulting turn.
// The remote service creates the thread when threadID is new to it.
func (c *Client) Chat(ctx context.Context, key, projectID string, req ChatRequest) ([]RawMessage, error) {
	var resp chatResponse
	path := agentPath(projectID, "chat")
	if err := c.do(ctx, key, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return resp.Result.Messages, nil
}

// agentPath builds /api/v1/ai-agent/{projectId}/... with escaped segments.
func agentPath(projectID string, segments ...string) string {
	var b strings.Builder
	b.WriteString(apiPrefix)
	b.WriteString("/ai-agent/")
	b.WriteString(url.PathEscape(projectID))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request and decodes a 2xx JSON body into out.
// No retries: a failed call is reported to the caller as is.
func (c *Client) do(ctx context.Context, key, method, path string, body any, out any) error {
	if strings.TrimSpace(key) == "" {
		return ErrMissingKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, key, body != nil)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	// SECURITY: Clear Authorization header immediately after request to prevent logging
	req.Header.Del("Authorization")
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("key", model.Fingerprint(key)).
		Msg("api response")

	data, err := c.readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return handleErrorResponse(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// setHeaders sets the required headers for partner API requests.
func (c *Client) setHeaders(req *http.Request, key string, hasBody bool) {
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(key))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func (c *Client) readResponse(resp *http.Response) ([]byte, error) {
	// Read one byte past the cap so an exactly-full body is still accepted.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxResponseBytes {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrResponseTooLarge, c.maxResponseBytes)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to appropriate Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	msg := errorMessage(body)

	var sentinel error
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrUnauthorized
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	default:
		return &APIError{Status: statusCode, Message: msg}
	}

	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// errorMessage extracts a human readable message from an error body.
func errorMessage(body []byte) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		switch e := apiErr.Error.(type) {
		case string:
			return e
		case map[string]any:
			if m, ok := e["message"].(string); ok {
				return m
			}
		}
	}
	// UNICODE: Cut on a cell boundary so the status bar never shows a split rune.
	const maxWidth = 200
	return util.TruncateWidth(strings.TrimSpace(string(body)), maxWidth)
}
