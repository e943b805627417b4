package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eve-telescope/telescope-app/internal/adapters/esi"
	"github.com/eve-telescope/telescope-app/internal/adapters/mq/worker"
	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/pkg/logger"
	"github.com/eve-telescope/telescope-app/pkg/metrics"
	"github.com/eve-telescope/telescope-app/pkg/reporting"
)

const cancelledReason = "lookup cancelled"

// Sink receives stream events of one lookup. Emit is only called from the
// goroutine running the lookup.
type Sink interface {
	Emit(ctx context.Context, event string, payload any)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event string, payload any)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, event string, payload any) { f(ctx, event, payload) }

type discard struct{}

func (discard) Emit(context.Context, string, any) {}

// Result is a finished lookup.
type Result struct {
	LookupID string              `json:"lookup_id"`
	Results  []model.PilotRecord `json:"results"`
}

// ParseNames splits text into trimmed, non-empty lines. Duplicates are kept.
func ParseNames(text string) []string {
	lines := strings.Split(text, "\n")
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Lookup resolves every name in text and returns one record per name,
// ordered by risk tier.
func (s *Service) Lookup(ctx context.Context, text string) (Result, error) {
	return s.LookupStream(ctx, text, nil)
}

type arrival struct {
	index  int
	record model.PilotRecord
}

type pending struct {
	index int
	id    int64
	name  string
}

// LookupStream is Lookup with incremental events delivered to sink.
func (s *Service) LookupStream(ctx context.Context, text string, sink Sink) (Result, error) {
	if sink == nil {
		sink = discard{}
	}
	start := time.Now()
	res := Result{LookupID: uuid.NewString()}
	log := s.logger.With(logger.String("lookup_id", res.LookupID))

	if !s.started.Load() {
		return res, ErrNotStarted
	}

	names := ParseNames(text)
	if len(names) > s.maxNames {
		return res, fmt.Errorf("%w: %d names, limit %d", ErrTooManyNames, len(names), s.maxNames)
	}

	s.lookups.Add(1)
	sink.Emit(ctx, model.EventStarted, model.Started{LookupID: res.LookupID, Total: len(names)})
	if len(names) == 0 {
		log.Info(ctx, "no pilot names provided")
		res.Results = []model.PilotRecord{}
		metrics.RecordLookup(metrics.OutcomeEmpty, time.Since(start))
		sink.Emit(ctx, model.EventDone, model.Done{LookupID: res.LookupID, Results: res.Results})
		return res, nil
	}

	log.Info(ctx, "looking up pilots", logger.Int("count", len(names)))
	log.Debug(ctx, "pilot names", logger.Strings("names", names))

	ids, err := s.identities.Resolve(ctx, names)
	if err != nil {
		return res, s.fail(ctx, log, sink, res.LookupID, start, err)
	}
	log.Info(ctx, "resolved character ids", logger.Int("resolved", len(ids)))

	progress := model.Progress{Total: len(names)}
	collected := make([]model.PilotRecord, 0, len(names))
	deliver := func(a arrival, cacheHit bool) {
		progress.Current++
		if cacheHit {
			progress.CacheHits++
		}
		collected = append(collected, a.record)
		sink.Emit(ctx, model.EventResult, model.Result{Record: a.record, OriginalIndex: a.index})
		sink.Emit(ctx, model.EventProgress, progress)
	}

	var queue []pending
	for i, name := range names {
		id, ok := ids[strings.ToLower(name)]
		if !ok {
			deliver(arrival{index: i, record: model.NewPlaceholder(0, name, esi.ErrNotFound.Error())}, false)
			continue
		}
		if rec, ok := s.fromCache(ctx, id); ok {
			log.Debug(ctx, "pilot served from cache", logger.Int64("character_id", id))
			deliver(arrival{index: i, record: rec}, true)
			continue
		}
		queue = append(queue, pending{index: i, id: id, name: name})
	}

	results := make(chan arrival, len(queue))
	for _, p := range queue {
		p := p
		err := s.dispatcher.Submit(ctx, func(tctx context.Context) {
			results <- arrival{index: p.index, record: s.fetch(tctx, log, p)}
		})
		if err != nil {
			log.Error(ctx, "failed to dispatch pilot", logger.String("name", p.name), logger.Error(err))
			results <- arrival{index: p.index, record: model.NewPlaceholder(p.id, p.name, err.Error())}
		}
	}
	s.dispatched.Add(int64(len(queue)))
	log.Debug(ctx, "dispatched uncached pilots",
		logger.Int("dispatched", len(queue)),
		logger.Int("cache_hits", progress.CacheHits),
	)

	if err := worker.Collect(ctx, results, len(queue), func(a arrival) { deliver(a, false) }); err != nil {
		return res, s.fail(ctx, log, sink, res.LookupID, start, err)
	}

	sortByTier(collected)
	res.Results = collected
	s.record(ctx, log, collected)
	s.cacheHits.Add(int64(progress.CacheHits))
	metrics.RecordLookup(metrics.OutcomeSuccess, time.Since(start))
	log.Info(ctx, "lookup complete",
		logger.Int("results", len(collected)),
		logger.Int("cache_hits", progress.CacheHits),
		logger.Duration("elapsed", time.Since(start)),
	)
	sink.Emit(ctx, model.EventDone, model.Done{LookupID: res.LookupID, Results: collected})
	return res, nil
}

// fromCache assembles a record when both profile and activity are cached.
func (s *Service) fromCache(ctx context.Context, id int64) (model.PilotRecord, bool) {
	profile, ok := s.identities.CachedProfile(ctx, id)
	if !ok {
		return model.PilotRecord{}, false
	}
	stats, ok := s.activity.CachedStats(ctx, id)
	if !ok {
		return model.PilotRecord{}, false
	}
	return s.assemble(profile, &stats), true
}

// fetch runs the profile then activity fetch for one pilot. A profile
// failure short-circuits to a placeholder; an activity failure leaves the
// record without stats.
func (s *Service) fetch(ctx context.Context, log logger.Logger, p pending) model.PilotRecord {
	log = log.With(logger.Int64("character_id", p.id))
	if ctx.Err() != nil {
		return model.NewPlaceholder(p.id, p.name, cancelledReason)
	}

	profile, err := s.identities.FetchProfile(ctx, p.id)
	if err != nil {
		if ctx.Err() != nil {
			return model.NewPlaceholder(p.id, p.name, cancelledReason)
		}
		log.Error(ctx, "failed to fetch profile", logger.String("name", p.name), logger.Error(err))
		return model.NewPlaceholder(p.id, p.name, err.Error())
	}

	var activity *model.ActivityStats
	res, err := s.activity.FetchStats(ctx, p.id)
	if err != nil {
		log.Warn(ctx, "failed to fetch activity stats", logger.String("name", profile.Name), logger.Error(err))
	} else {
		stats := res.Stats
		activity = &stats
		log.Debug(ctx, "fetched activity stats",
			logger.Int64("destroyed", stats.ShipsDestroyed),
			logger.Int64("lost", stats.ShipsLost),
			logger.Bool("from_cache", res.FromCache),
		)
	}
	return s.assemble(profile, activity)
}

func (s *Service) assemble(profile model.ProfileRecord, activity *model.ActivityStats) model.PilotRecord {
	rec := model.PilotRecord{
		Profile:  profile,
		Activity: activity,
		RiskTier: s.engine.Tier(activity),
	}
	if activity != nil {
		rec.Flags = s.engine.Flags(activity)
	}
	return rec
}

func (s *Service) fail(ctx context.Context, log logger.Logger, sink Sink, lookupID string, start time.Time, err error) error {
	s.failures.Add(1)
	outcome := metrics.OutcomeFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		outcome = metrics.OutcomeCancelled
		log.Warn(ctx, "lookup cancelled", logger.Error(err))
	} else {
		log.Error(ctx, "lookup failed", logger.Error(err))
		reporting.CaptureError(err, map[string]string{"component": "lookup", "lookup_id": lookupID})
	}
	metrics.RecordLookup(outcome, time.Since(start))
	sink.Emit(ctx, model.EventError, model.Failure{LookupID: lookupID, Message: err.Error()})
	return fmt.Errorf("lookup %s: %w", lookupID, err)
}

func (s *Service) record(ctx context.Context, log logger.Logger, records []model.PilotRecord) {
	var threats []string
	for _, r := range records {
		s.pilots.Add(1)
		metrics.RecordPilot(r.RiskTier.String())
		if r.Failed() {
			metrics.RecordPilotError()
		}
		if r.RiskTier.IsThreat() {
			threats = append(threats, r.Profile.Name)
		}
	}
	if len(threats) > 0 {
		log.Warn(ctx, "high threat pilots detected", logger.Strings("names", threats))
	}
}

// sortByTier orders records by tier rank, keeping arrival order within a tier.
func sortByTier(records []model.PilotRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RiskTier.Rank() < records[j].RiskTier.Rank()
	})
}
