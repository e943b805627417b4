// Package zkill fetches character activity statistics from zKillboard.
package zkill

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eve-telescope/telescope-app/internal/adapters/cache"
	"github.com/eve-telescope/telescope-app/internal/adapters/upstream"
	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/pkg/logger"
	"github.com/eve-telescope/telescope-app/pkg/metrics"
)

const (
	// Provider labels upstream metrics.
	Provider = "zkill"

	defaultBaseURL    = "https://zkillboard.com"
	defaultTTL        = time.Hour
	defaultEmptyTTL   = 5 * time.Minute
	emptyArrayPayload = "[]"
)

// FetchResult is the outcome of FetchStats.
type FetchResult struct {
	Stats     model.ActivityStats
	FromCache bool
}

// Client talks to zKillboard and caches activity stats.
type Client struct {
	http       *upstream.Client
	store      cache.Cache
	baseURL    string
	defaultTTL time.Duration
	emptyTTL   time.Duration
	compress   bool
	logger     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the zKillboard root, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithDefaultTTL sets the TTL used when no max-age directive is returned.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTTL = d
		}
	}
}

// WithEmptyTTL sets the TTL of "no activity" results.
func WithEmptyTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.emptyTTL = d
		}
	}
}

// WithCompression toggles compression of populated entries at rest.
func WithCompression(enabled bool) Option {
	return func(c *Client) {
		c.compress = enabled
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

// NewClient creates a zKillboard client that caches stats in store.
func NewClient(http *upstream.Client, store cache.Cache, opts ...Option) *Client {
	c := &Client{
		http:       http,
		store:      store,
		baseURL:    defaultBaseURL,
		defaultTTL: defaultTTL,
		emptyTTL:   defaultEmptyTTL,
		compress:   true,
		logger:     logger.Get().Named(Provider),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CachedStats returns cached stats for id without touching the network.
// Unreadable entries count as a miss.
func (c *Client) CachedStats(ctx context.Context, id int64) (model.ActivityStats, bool) {
	stats, ok, err := cache.GetJSON[model.ActivityStats](ctx, c.store, cache.ActivityKey(id))
	if err != nil {
		c.logger.Debug(ctx, "activity cache read failed, treating as miss",
			logger.Int64("character_id", id), logger.Error(err))
	}
	if err != nil || !ok {
		metrics.RecordCacheRequest(metrics.CacheKindActivity, metrics.CacheMiss)
		return model.ActivityStats{}, false
	}
	metrics.RecordCacheRequest(metrics.CacheKindActivity, metrics.CacheHit)
	return stats, true
}

// FetchStats returns activity stats for id, from cache when possible.
//
// A non-success status is not an error: inactive characters routinely 404,
// so zero stats are returned uncached. Transport failures wrap ErrFetch and
// a malformed body wraps ErrDecode.
func (c *Client) FetchStats(ctx context.Context, id int64) (FetchResult, error) {
	log := c.logger.With(logger.Int64("character_id", id))

	if stats, ok := c.CachedStats(ctx, id); ok {
		log.Debug(ctx, "activity cache hit")
		return FetchResult{Stats: stats, FromCache: true}, nil
	}

	url := fmt.Sprintf("%s/api/stats/characterID/%d/", c.baseURL, id)
	log.Debug(ctx, "fetching activity stats")

	resp, err := c.http.Get(ctx, "stats", url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return FetchResult{}, ctxErr
		}
		return FetchResult{}, fmt.Errorf("%w: %d: %w", ErrFetch, id, err)
	}
	if !resp.OK() {
		log.Warn(ctx, "zkill returned non-success status", logger.Int("status", resp.StatusCode))
		return FetchResult{}, nil
	}

	body := strings.TrimSpace(resp.Text())
	if body == "" || body == emptyArrayPayload {
		log.Debug(ctx, "no activity data")
		c.save(ctx, log, id, model.ActivityStats{}, c.emptyTTL, false)
		return FetchResult{}, nil
	}

	stats, err := Parse([]byte(body))
	if err != nil {
		metrics.RecordErrorByComponent(Provider, "decode")
		return FetchResult{}, fmt.Errorf("%w: %d: %w", ErrDecode, id, err)
	}

	ttl := c.defaultTTL
	if maxAge, ok := parseMaxAge(resp.Header.Get("Cache-Control")); ok {
		ttl = maxAge
	}
	c.save(ctx, log, id, stats, ttl, c.compress)
	return FetchResult{Stats: stats}, nil
}

func (c *Client) save(ctx context.Context, log logger.Logger, id int64, stats model.ActivityStats, ttl time.Duration, compress bool) {
	if ttl <= 0 {
		log.Debug(ctx, "activity marked uncacheable upstream")
		return
	}
	if err := cache.SetJSON(ctx, c.store, cache.ActivityKey(id), stats, ttl, compress); err != nil {
		log.Warn(ctx, "failed to cache activity", logger.Error(err))
		metrics.RecordCacheWriteFailure(metrics.CacheKindActivity)
		return
	}
	log.Debug(ctx, "cached activity", logger.Duration("ttl", ttl), logger.Bool("compressed", compress))
}

// parseMaxAge extracts max-age from a Cache-Control header.
func parseMaxAge(header string) (time.Duration, bool) {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		v, ok := strings.CutPrefix(strings.ToLower(part), "max-age=")
		if !ok {
			continue
		}
		secs, err := strconv.ParseInt(strings.Trim(v, `"`), 10, 64)
		if err != nil || secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
