// Package predictapi is the HTTP client of the prediction API.
//
// Calls are independent: no retries and no caching. A timeout applies only
// when configured.
package predictapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/paddock/pkg/logger"
	"github.com/okian/paddock/pkg/metrics"
)

const maxErrorBody = 64 * 1024

// Client talks to the prediction API.
type Client struct {
	base *url.URL
	http *http.Client
	log  logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds every call. Zero keeps calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient builds a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse prediction api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse prediction api url: %q is not absolute", baseURL)
	}
	c := &Client{base: u, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("predictapi")
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, resource, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, resource, c.endpoint(path, query), nil, out)
}

func (c *Client) post(ctx context.Context, resource, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &FetchError{Resource: resource, Err: fmt.Errorf("encode request: %w", err)}
	}
	return c.do(ctx, http.MethodPost, resource, c.endpoint(path, nil), body, out)
}

func (c *Client) do(ctx context.Context, method, resource, target string, body []byte, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.RecordUpstreamFetch(resource, outcome, float64(time.Since(start).Milliseconds()))
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &FetchError{Resource: resource, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "prediction api call failed",
			logger.String("resource", resource), logger.Error(err))
		return &FetchError{Resource: resource, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fe := &FetchError{Resource: resource, Status: resp.StatusCode, Err: ErrUnexpectedStatus}
		fe.Detail = errorDetail(resp.Body)
		c.log.Debug(ctx, "prediction api returned an error status",
			logger.String("resource", resource), logger.Int("status", resp.StatusCode))
		return fe
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Resource: resource, Status: resp.StatusCode, Err: fmt.Errorf("%w: %w", ErrDecode, err)}
	}
	return nil
}

// errorDetail extracts FastAPI's {"detail": ...} or the raw body text.
func errorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(payload.Detail)
		return string(b)
	}
	return strings.TrimSpace(string(raw))
}
