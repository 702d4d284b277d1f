// Package wfm is a rate-limited client for the warframe.market v1 API.
package wfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"primeflip/internal/logger"
	"primeflip/internal/ratelimit"
)

const defaultBaseURL = "https://api.warframe.market/v1"

// Client is a rate-limited market HTTP client. Every request passes through
// the shared limiter before touching the network, so the process as a whole
// honors the upstream request-rate contract.
type Client struct {
	http     *http.Client
	baseURL  string
	limiter  *ratelimit.Limiter
	platform string
	orders   *ordersCache
}

// NewClient creates a client gated by the given limiter. Platform selects
// the market shard (pc, ps4, xbox, switch); empty means pc.
func NewClient(limiter *ratelimit.Limiter, platform string) *Client {
	if platform == "" {
		platform = "pc"
	}
	return &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		baseURL:  defaultBaseURL,
		limiter:  limiter,
		platform: platform,
		orders:   newOrdersCache(5 * time.Minute),
	}
}

// SetBaseURL points the client at a different host. Tests use it.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Limiter exposes the admission gate for load reporting.
func (c *Client) Limiter() *ratelimit.Limiter { return c.limiter }

// getJSON acquires a rate-limit slot, fetches a path and decodes the JSON
// response into dst.
func (c *Client) getJSON(ctx context.Context, path string, dst interface{}) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}
	logger.Debug("Market", "GET "+path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "primeflip/1.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Platform", c.platform)
	req.Header.Set("Language", "en")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("market %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("market %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
