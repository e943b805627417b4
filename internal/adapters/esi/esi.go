// Package esi resolves character names and fetches character profiles from
// the EVE Swagger Interface.
package esi

import (
	"strings"
	"time"

	"github.com/eve-telescope/telescope-app/internal/adapters/cache"
	"github.com/eve-telescope/telescope-app/internal/adapters/upstream"
	"github.com/eve-telescope/telescope-app/pkg/logger"
)

const (
	// Provider labels upstream metrics.
	Provider = "esi"

	defaultBaseURL    = "https://esi.evetech.net/latest"
	defaultProfileTTL = time.Hour
	datasource        = "datasource=tranquility"
)

// Client talks to ESI and caches profiles.
type Client struct {
	http       *upstream.Client
	store      cache.Cache
	baseURL    string
	defaultTTL time.Duration
	now        func() time.Time
	logger     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the ESI root, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithDefaultTTL sets the profile TTL used when no usable expires header is returned.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTTL = d
		}
	}
}

// WithClock overrides the time source used for TTL derivation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates an ESI client that caches profiles in store.
func NewClient(http *upstream.Client, store cache.Cache, opts ...Option) *Client {
	c := &Client{
		http:       http,
		store:      store,
		baseURL:    defaultBaseURL,
		defaultTTL: defaultProfileTTL,
		now:        time.Now,
		logger:     logger.Get().Named(Provider),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
