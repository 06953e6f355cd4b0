// Package marketclient wraps the marketplace's JSON-over-HTTPS API. The
// backend's payload shapes vary, so responses are decoded into raw maps and
// handed to the payload resolver rather than rigid structs.
package marketclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Client wraps the marketplace REST API
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	logger  *zap.Logger
}

// APIError carries the server-provided failure message so it can be shown
// verbatim to the user
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// envelope is the common {success, message} response wrapper
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// NewClient creates a marketplace client authenticated with the session
// token via a static token source
func NewClient(ctx context.Context, baseURL, token string, logger *zap.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   token,
		logger:  logger,
	}
}

// Token returns the session token, needed in some request bodies for
// backend compatibility
func (c *Client) Token() string {
	return c.token
}

// postJSON posts a JSON body and returns the raw response bytes. Non-2xx
// responses and {success:false} envelopes become APIErrors carrying the
// server message.
func (c *Client) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// getJSON issues a GET and returns the raw response bytes
func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL.Path, err)
	}

	c.logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if err := apiError(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

// apiError inspects a response for failure: either a non-2xx status or a
// 2xx body with {success: false}
func apiError(status int, data []byte) error {
	var env envelope
	// Envelope decode is best effort; many endpoints return bare payloads
	_ = json.Unmarshal(data, &env)

	if status < 200 || status >= 300 {
		return &APIError{StatusCode: status, Message: env.Message}
	}
	if env.Success != nil && !*env.Success {
		return &APIError{StatusCode: status, Message: env.Message}
	}
	return nil
}

// decodeMap decodes response bytes into a raw map for the payload resolver
func decodeMap(data []byte) (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return record, nil
}
