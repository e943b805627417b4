// Package cache provides the key/value store with per-entry TTL used for
// profile and activity entries.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Key prefixes.
const (
	profilePrefix  = "profile:"
	activityPrefix = "activity:"
)

// Cache stores opaque values under string keys.
//
// A ttl <= 0 stores the entry without expiry. Expired entries are never
// returned. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value and true when a live entry exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value, optionally compressed at rest.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, compress bool) error
	// Clear removes every entry.
	Clear(ctx context.Context) error
	// Len returns the number of live entries.
	Len(ctx context.Context) int
	// Close stops background work and releases resources.
	Close() error
}

// ProfileKey returns the cache key of a character profile.
func ProfileKey(id int64) string {
	return profilePrefix + strconv.FormatInt(id, 10)
}

// ActivityKey returns the cache key of a character's activity stats.
func ActivityKey(id int64) string {
	return activityPrefix + strconv.FormatInt(id, 10)
}

// GetJSON loads and decodes the entry at key into a T.
// A decode failure is returned wrapped in ErrCodec; callers treat it as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var v T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("%w: %s: %w", ErrCodec, key, err)
	}
	return v, true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration, compress bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCodec, key, err)
	}
	return c.Set(ctx, key, raw, ttl, compress)
}
