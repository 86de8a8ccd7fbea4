// Package proxy implements the single-shot upstream fetch with fallback
// substitution used by every /api/v1 route handler.
package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultDegradedCacheControl is applied when a route does not configure
// its own degraded policy. Short so recovery is picked up quickly.
const DefaultDegradedCacheControl = "public, s-maxage=5"

// Policy is a route's cache directive pair.
type Policy struct {
	CacheControl string
	Degraded     string
}

// Result is what a route handler serves: exactly one of upstream body or
// fallback, never an error.
type Result struct {
	Body         json.RawMessage
	CacheControl string
	ETag         string
	Degraded     bool
}

// LastGoodStore records successful upstream bodies and replays them when
// the upstream is down. A nil store disables warm fallback.
type LastGoodStore interface {
	Record(ctx context.Context, path string, body []byte) error
	LastGood(ctx context.Context, path string) ([]byte, error)
}

// Client performs bounded upstream GETs against a single configured base.
type Client struct {
	base    string
	token   string
	timeout time.Duration
	httpc   *http.Client
	store   LastGoodStore
	logger  *log.Logger
}

func NewClient(base, token string, timeout time.Duration, store LastGoodStore, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		token:   token,
		timeout: timeout,
		httpc:   &http.Client{Timeout: timeout},
		store:   store,
		logger:  logger,
	}
}

// Configured reports whether an upstream base is set. When false, Fetch
// serves fallbacks without attempting the network.
func (c *Client) Configured() bool {
	return c.base != ""
}

// Fetch issues one GET to base+path and returns the upstream body on
// success, or the fallback (optionally a warmer last-good body) on any
// failure. All failure modes collapse to the fallback result; the next
// poll cycle is the retry.
func (c *Client) Fetch(ctx context.Context, path string, fallback json.RawMessage, pol Policy) Result {
	degraded := pol.Degraded
	if degraded == "" {
		degraded = DefaultDegradedCacheControl
	}

	// Configuration-absent: silent by design, not an error.
	if c.base == "" {
		return Result{Body: fallback, CacheControl: degraded, Degraded: true}
	}

	body, etag, err := c.get(ctx, path)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("upstream %s unavailable, serving fallback: %v", path, err)
		}
		return Result{Body: c.warmFallback(ctx, path, fallback), CacheControl: degraded, Degraded: true}
	}

	if c.store != nil {
		if err := c.store.Record(ctx, path, body); err != nil && c.logger != nil {
			c.logger.Printf("record snapshot for %s: %v", path, err)
		}
	}

	cc := pol.CacheControl
	if cc == "" {
		cc = degraded
	}
	return Result{Body: body, CacheControl: cc, ETag: etag}
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", bearer(c.token))
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &StatusError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if !json.Valid(body) {
		return nil, "", ErrMalformedBody
	}
	return body, resp.Header.Get("ETag"), nil
}

// warmFallback prefers the last recorded good body over the static
// placeholder so a brief upstream outage does not blank the dashboard.
func (c *Client) warmFallback(ctx context.Context, path string, fallback json.RawMessage) json.RawMessage {
	if c.store == nil {
		return fallback
	}
	body, err := c.store.LastGood(ctx, path)
	if err != nil || len(body) == 0 || !json.Valid(body) {
		return fallback
	}
	return body
}

func bearer(token string) string {
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return token
	}
	return "Bearer " + token
}
