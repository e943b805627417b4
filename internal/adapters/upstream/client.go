// Package upstream is the HTTP client shared by the provider adapters. Every
// request carries the configured User-Agent and is recorded in metrics.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/eve-telescope/telescope-app/pkg/metrics"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "telescope"
	maxBodyBytes     = 8 << 20
)

// Client issues JSON requests against one provider.
type Client struct {
	httpClient *http.Client
	userAgent  string
	provider   string
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the identifying header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for provider, which labels metrics.
func NewClient(provider string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		provider:   provider,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", r.URL, err)
	}
	return nil
}

// Err returns a *StatusError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{URL: r.URL, StatusCode: r.StatusCode}
}

// Get issues a GET. endpoint names the route for metrics.
func (c *Client) Get(ctx context.Context, endpoint, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return c.do(req, endpoint)
}

// PostJSON issues a POST with body encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, endpoint, url string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %w", ErrRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint)
}

func (c *Client) do(req *http.Request, endpoint string) (*Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(c.provider, endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.URL.Redacted(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordUpstreamRequest(c.provider, endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrTransport, req.URL.Redacted(), err)
	}

	return &Response{
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// GetJSON fetches url and decodes a 2xx body into a T.
// Non-2xx responses return a *StatusError alongside the response.
func GetJSON[T any](ctx context.Context, c *Client, endpoint, url string) (*T, *Response, error) {
	resp, err := c.Get(ctx, endpoint, url)
	if err != nil {
		return nil, nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, resp, err
	}
	var data T
	if err := resp.JSON(&data); err != nil {
		return nil, resp, err
	}
	return &data, resp, nil
}
