// Package geoclient reverse-geocodes a position into a human-readable
// address. It is a best-effort collaborator: callers keep the raw
// coordinates and treat a failed lookup as non-fatal.
package geoclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Client wraps a Nominatim-style reverse geocoding endpoint
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a geocoding client for the configured endpoint
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// ReverseGeocode resolves coordinates to a display address. An empty
// display_name in a successful response returns "" without error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build reverse geocode request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read reverse geocode response: %w", err)
	}

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	c.logger.Debug("reverse geocoded",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("address", body.DisplayName))

	return body.DisplayName, nil
}
