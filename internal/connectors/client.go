package connectors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/logger"
)

const (
	// FastTimeout suits low-latency sanction and lookup APIs.
	FastTimeout = 3 * time.Second

	// DefaultTimeout suits ordinary search APIs.
	DefaultTimeout = 5 * time.Second

	// SlowTimeout suits known-slow enterprise registries.
	SlowTimeout = 15 * time.Second

	// maxResponseBytes bounds how much of an upstream body is read.
	maxResponseBytes = 8 << 20
)

// Client is a thin JSON-over-HTTPS client for sources authenticated by a
// static API key (or nothing). Sources with a token lifecycle use
// auth.Session instead.
type Client struct {
	base    string
	headers map[string]string
	http    *http.Client
}

// NewClient creates a client for the given base URL. Headers are attached
// to every request; typically the source's API-key header.
func NewClient(base string, timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:    base,
		headers: headers,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetJSON issues a GET against path (joined to the base URL) with the given
// query parameters and returns the parsed body. Non-2xx statuses surface as
// a StatusError so callers can distinguish upstream rejections from
// transport failures.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	logger.Debug("GET %s", u)
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.ParseBytes(body), &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", domain.ErrUpstreamDecode)
	}
	return gjson.ParseBytes(body), nil
}

// StatusError is a non-success HTTP status from a source. The parsed body,
// when the source returned one, accompanies the GetJSON result so callers
// can pull a structured message out of it.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.Status)
}

// Is makes StatusError match domain.ErrUpstreamStatus.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrUpstreamStatus
}
