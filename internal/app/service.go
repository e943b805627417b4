// Package service orchestrates pilot lookups: name resolution, cache
// reads, throttled fetching, scoring and ordering of the final records.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eve-telescope/telescope-app/internal/adapters/cache"
	"github.com/eve-telescope/telescope-app/internal/adapters/mq/worker"
	"github.com/eve-telescope/telescope-app/internal/adapters/zkill"
	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/internal/domain/scoring"
	"github.com/eve-telescope/telescope-app/pkg/logger"
)

const (
	defaultDispatchInterval = 100 * time.Millisecond
	defaultDispatchCapacity = 10000
	defaultMaxNames         = 1000
)

// Identities resolves names and fetches profiles.
type Identities interface {
	Resolve(ctx context.Context, names []string) (map[string]int64, error)
	FetchProfile(ctx context.Context, id int64) (model.ProfileRecord, error)
	CachedProfile(ctx context.Context, id int64) (model.ProfileRecord, bool)
}

// Activity fetches killboard statistics.
type Activity interface {
	FetchStats(ctx context.Context, id int64) (zkill.FetchResult, error)
	CachedStats(ctx context.Context, id int64) (model.ActivityStats, bool)
}

// Service implements the lookup operations exposed by the HTTP API.
type Service struct {
	mu sync.Mutex

	identities Identities
	activity   Activity
	store      cache.Cache
	engine     *scoring.Engine
	dispatcher *worker.Dispatcher

	dispatchInterval time.Duration
	dispatchCapacity int
	maxNames         int

	started atomic.Bool
	counters

	logger logger.Logger
}

type counters struct {
	lookups    atomic.Int64
	failures   atomic.Int64
	pilots     atomic.Int64
	cacheHits  atomic.Int64
	dispatched atomic.Int64
}

// Stats is a snapshot of service counters.
type Stats struct {
	Started          bool   `json:"started"`
	Lookups          int64  `json:"lookups"`
	FailedLookups    int64  `json:"failed_lookups"`
	Pilots           int64  `json:"pilots"`
	CacheHits        int64  `json:"cache_hits"`
	Dispatched       int64  `json:"dispatched"`
	Pending          int    `json:"pending"`
	CacheEntries     int    `json:"cache_entries"`
	DispatchInterval string `json:"dispatch_interval"`
	MaxNames         int    `json:"max_names"`
}

// New constructs a Service. Call Start before issuing lookups.
func New(identities Identities, activity Activity, store cache.Cache, opts ...Option) *Service {
	s := &Service{
		identities:       identities,
		activity:         activity,
		store:            store,
		engine:           scoring.NewEngine(),
		dispatchInterval: defaultDispatchInterval,
		dispatchCapacity: defaultDispatchCapacity,
		maxNames:         defaultMaxNames,
		logger:           logger.Get().Named("lookup"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.dispatcher = worker.NewDispatcher(
		worker.WithInterval(s.dispatchInterval),
		worker.WithCapacity(s.dispatchCapacity),
	)
	return s
}

// Start launches the dispatcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}
	s.dispatcher.Start(ctx)
	s.started.Store(true)
	s.logger.Info(ctx, "lookup service started",
		logger.Duration("dispatch_interval", s.dispatchInterval),
		logger.Int("max_names", s.maxNames),
	)
	return nil
}

// Stop refuses new lookups and waits for dispatched fetches to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Load() {
		return nil
	}
	s.started.Store(false)
	s.logger.Info(ctx, "stopping lookup service")
	if err := s.dispatcher.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop lookup service: %w", err)
	}
	return nil
}

// ClearCache removes every cached profile and activity entry.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error(ctx, "failed to clear cache", logger.Error(err))
		return fmt.Errorf("clear cache: %w", err)
	}
	s.logger.Info(ctx, "cache cleared")
	return nil
}

// Stats returns service counters.
func (s *Service) Stats(ctx context.Context) Stats {
	return Stats{
		Started:          s.started.Load(),
		Lookups:          s.lookups.Load(),
		FailedLookups:    s.failures.Load(),
		Pilots:           s.pilots.Load(),
		CacheHits:        s.cacheHits.Load(),
		Dispatched:       s.dispatched.Load(),
		Pending:          s.dispatcher.Pending(ctx),
		CacheEntries:     s.store.Len(ctx),
		DispatchInterval: s.dispatchInterval.String(),
		MaxNames:         s.maxNames,
	}
}
