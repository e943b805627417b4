package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "TELESCOPE_"
	envFileVar = "TELESCOPE_CONFIG"
	dotEnvFile = ".env"
)

// listKeys are the []string settings that env vars may set.
var listKeys = map[string]struct{}{ //nolint:gochecknoglobals // static table
	"cors_origins": {},
}

// splitList splits a comma-separated value, dropping blank items.
func splitList(value string) []string {
	items := make([]string, 0, strings.Count(value, ",")+1)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env in the working directory, copied into the process environment
//  3. file (YAML) if TELESCOPE_CONFIG is set
//  4. env (prefix TELESCOPE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	// Existing variables win over .env entries.
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, dotEnvFile, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TELESCOPE_DISPATCH_INTERVAL_MS -> dispatch_interval_ms (flat keys).
	// List keys take a comma-separated value.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants the rest of the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ESIBaseURL == "":
		return fmt.Errorf("%w: esi_base_url must not be empty", ErrInvalidConfig)
	case c.ZKillBaseURL == "":
		return fmt.Errorf("%w: zkill_base_url must not be empty", ErrInvalidConfig)
	case c.DispatchIntervalMS <= 0:
		return fmt.Errorf("%w: dispatch_interval_ms must be positive", ErrInvalidConfig)
	case c.HTTPTimeoutMS <= 0:
		return fmt.Errorf("%w: http_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxNames <= 0:
		return fmt.Errorf("%w: max_names must be positive", ErrInvalidConfig)
	}
	switch c.CacheDriver {
	case CacheDriverMemory:
	case CacheDriverSQLite:
		if c.CachePath == "" {
			return fmt.Errorf("%w: cache_path must not be empty for sqlite", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_driver %q", ErrInvalidConfig, c.CacheDriver)
	}
	return nil
}
