// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Durations are stored as integers with a unit suffix in the key and exposed
//     through typed accessor methods.
//   - External errors must be wrapped via this package's error kinds.
package config

import (
	"time"
)

// Cache drivers understood by the service.
const (
	CacheDriverMemory = "memory"
	CacheDriverSQLite = "sqlite"
)

// Version is the application version reported in the User-Agent and to Sentry.
var Version = "0.4.0" //nolint:gochecknoglobals // overridden at link time

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ESIBaseURL is the identity/profile provider root.
	ESIBaseURL string `koanf:"esi_base_url"`

	// ZKillBaseURL is the activity statistics provider root.
	ZKillBaseURL string `koanf:"zkill_base_url"`

	// UserAgent is sent on every upstream request.
	UserAgent string `koanf:"user_agent"`

	// HTTPTimeoutMS bounds a single upstream request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// DispatchIntervalMS is the admission gate period; one fetch task per tick.
	DispatchIntervalMS int `koanf:"dispatch_interval_ms"`

	// CacheDriver selects the cache backend: memory or sqlite.
	CacheDriver string `koanf:"cache_driver"`

	// CachePath is the SQLite database file when CacheDriver is sqlite.
	CachePath string `koanf:"cache_path"`

	// CachePurgeIntervalS controls how often expired SQLite rows are removed.
	CachePurgeIntervalS int `koanf:"cache_purge_interval_s"`

	// ProfileDefaultTTLS applies when the profile response carries no usable expires header.
	ProfileDefaultTTLS int `koanf:"profile_default_ttl_s"`

	// ActivityDefaultTTLS applies when the stats response carries no usable max-age.
	ActivityDefaultTTLS int `koanf:"activity_default_ttl_s"`

	// ActivityEmptyTTLS applies to "no activity" results.
	ActivityEmptyTTLS int `koanf:"activity_empty_ttl_s"`

	// ActivityCompress stores activity entries compressed.
	ActivityCompress bool `koanf:"activity_compress"`

	// CORSOrigins lists allowed browser origins. Empty allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// SentryDSN enables error reporting when set.
	SentryDSN string `koanf:"sentry_dsn"`

	// Environment tags reported errors.
	Environment string `koanf:"environment"`

	// MaxNames caps the number of names accepted by one lookup request.
	MaxNames int `koanf:"max_names"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ESIBaseURL:          "https://esi.evetech.net/latest",
		ZKillBaseURL:        "https://zkillboard.com",
		UserAgent:           "Telescope/" + Version + " (eve-telescope.com; github.com/eve-telescope/telescope-app)",
		HTTPTimeoutMS:       15_000,
		DispatchIntervalMS:  100,
		CacheDriver:         CacheDriverMemory,
		CachePath:           "telescope-cache.db",
		CachePurgeIntervalS: 300,
		ProfileDefaultTTLS:  3600,
		ActivityDefaultTTLS: 3600,
		ActivityEmptyTTLS:   300,
		ActivityCompress:    true,
		CORSOrigins:         []string{},
		Environment:         "development",
		MaxNames:            1000,
	}
}

// HTTPTimeout returns the upstream request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// DispatchInterval returns the admission gate period.
func (c *Config) DispatchInterval() time.Duration {
	return time.Duration(c.DispatchIntervalMS) * time.Millisecond
}

// CachePurgeInterval returns the SQLite purge period.
func (c *Config) CachePurgeInterval() time.Duration {
	return time.Duration(c.CachePurgeIntervalS) * time.Second
}

func (c *Config) ProfileDefaultTTL() time.Duration {
	return time.Duration(c.ProfileDefaultTTLS) * time.Second
}

func (c *Config) ActivityDefaultTTL() time.Duration {
	return time.Duration(c.ActivityDefaultTTLS) * time.Second
}

func (c *Config) ActivityEmptyTTL() time.Duration {
	return time.Duration(c.ActivityEmptyTTLS) * time.Second
}
