// Package homeassistant contains a minimal client for the Home Assistant REST API:
// fetching a camera still image, resolving an authorized stream locator, and
// checking backend reachability.
package homeassistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ekvall/camrelay/config"
)

// Locator is an authorized, directly-fetchable stream URL plus the header value
// needed to dereference it. It is created per request and never reused; tokens
// may rotate between requests.
type Locator struct {
	URL        string
	AuthHeader string
}

// StatusError reports a non-2xx response from Home Assistant.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("home assistant returned status %d", e.Code)
}

// Client talks to one Home Assistant instance about one camera entity.
type Client struct {
	BaseURL    string
	Token      string
	Entity     string
	HTTPClient *http.Client
}

// New builds a Client from the service configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		BaseURL: cfg.HABaseURL,
		Token:   cfg.HAToken,
		Entity:  cfg.CameraEntity,
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	return c.http().Do(req)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}

// Snapshot fetches a single still image from the camera proxy endpoint and
// returns the raw image bytes.
func (c *Client) Snapshot(ctx context.Context) ([]byte, error) {
	url := fmt.Sprintf("%s/api/camera_proxy/%s", c.BaseURL, c.Entity)
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("snapshot fetch: %w", err)
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// ResolveStream probes the camera stream endpoint and, on success, returns a
// locator the recording process can fetch itself. The stream content is not
// consumed here.
func (c *Client) ResolveStream(ctx context.Context) (Locator, error) {
	url := fmt.Sprintf("%s/api/camera_proxy_stream/%s", c.BaseURL, c.Entity)
	resp, err := c.get(ctx, url)
	if err != nil {
		return Locator{}, fmt.Errorf("stream probe: %w", err)
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return Locator{}, &StatusError{Code: resp.StatusCode}
	}
	return Locator{URL: url, AuthHeader: "Authorization: Bearer " + c.Token}, nil
}

// Status checks that the Home Assistant API answers authorized requests.
func (c *Client) Status(ctx context.Context) error {
	resp, err := c.get(ctx, c.BaseURL+"/api/")
	if err != nil {
		return fmt.Errorf("status check: %w", err)
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
