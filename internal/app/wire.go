package service

import (
	"context"
	"fmt"

	"github.com/eve-telescope/telescope-app/internal/adapters/cache"
	"github.com/eve-telescope/telescope-app/internal/adapters/esi"
	"github.com/eve-telescope/telescope-app/internal/adapters/upstream"
	"github.com/eve-telescope/telescope-app/internal/adapters/zkill"
	"github.com/eve-telescope/telescope-app/internal/config"
)

// OpenCache opens the store selected by cfg.CacheDriver.
func OpenCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.CacheDriver {
	case config.CacheDriverSQLite:
		store, err := cache.NewSQLiteStore(ctx, cfg.CachePath, cache.WithPurgeInterval(cfg.CachePurgeInterval()))
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		return store, nil
	case config.CacheDriverMemory, "":
		store, err := cache.NewMemoryStore(ctx, cache.WithPurgeInterval(cfg.CachePurgeInterval()))
		if err != nil {
			return nil, fmt.Errorf("open memory cache: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
	}
}

// FromConfig wires the ESI and zKillboard clients over store and builds
// the service. Extra options are applied after the configured ones.
func FromConfig(cfg *config.Config, store cache.Cache, opts ...Option) *Service {
	clientOpts := []upstream.Option{
		upstream.WithTimeout(cfg.HTTPTimeout()),
		upstream.WithUserAgent(cfg.UserAgent),
	}

	identities := esi.NewClient(upstream.NewClient(esi.Provider, clientOpts...), store,
		esi.WithBaseURL(cfg.ESIBaseURL),
		esi.WithDefaultTTL(cfg.ProfileDefaultTTL()),
	)
	activity := zkill.NewClient(upstream.NewClient(zkill.Provider, clientOpts...), store,
		zkill.WithBaseURL(cfg.ZKillBaseURL),
		zkill.WithDefaultTTL(cfg.ActivityDefaultTTL()),
		zkill.WithEmptyTTL(cfg.ActivityEmptyTTL()),
		zkill.WithCompression(cfg.ActivityCompress),
	)

	base := []Option{
		WithDispatchInterval(cfg.DispatchInterval()),
		WithMaxNames(cfg.MaxNames),
	}
	return New(identities, activity, store, append(base, opts...)...)
}
