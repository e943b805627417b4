package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eve-telescope/telescope-app/internal/adapters/cache"
	"github.com/eve-telescope/telescope-app/internal/adapters/esi"
	"github.com/eve-telescope/telescope-app/internal/adapters/zkill"
	service "github.com/eve-telescope/telescope-app/internal/app"
	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/internal/domain/scoring"
	"github.com/eve-telescope/telescope-app/internal/domain/types"
	"github.com/eve-telescope/telescope-app/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type fakeIdentities struct {
	mu         sync.Mutex
	ids        map[string]int64
	profiles   map[int64]model.ProfileRecord
	cached     map[int64]model.ProfileRecord
	failures   map[int64]error
	resolveErr error

	resolveCalls atomic.Int32
	profileCalls atomic.Int32
}

func (f *fakeIdentities) Resolve(_ context.Context, names []string) (map[string]int64, error) {
	f.resolveCalls.Add(1)
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	out := make(map[string]int64)
	for _, n := range names {
		if id, ok := f.ids[strings.ToLower(n)]; ok {
			out[strings.ToLower(n)] = id
		}
	}
	return out, nil
}

func (f *fakeIdentities) FetchProfile(ctx context.Context, id int64) (model.ProfileRecord, error) {
	f.profileCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return model.ProfileRecord{}, err
	}
	if err := f.failures[id]; err != nil {
		return model.ProfileRecord{}, err
	}
	return f.profiles[id], nil
}

func (f *fakeIdentities) CachedProfile(_ context.Context, id int64) (model.ProfileRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.cached[id]
	return p, ok
}

type fakeActivity struct {
	mu       sync.Mutex
	stats    map[int64]model.ActivityStats
	cached   map[int64]model.ActivityStats
	failures map[int64]error

	calls atomic.Int32
	seen  []int64
}

func (f *fakeActivity) FetchStats(_ context.Context, id int64) (zkill.FetchResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	if err := f.failures[id]; err != nil {
		return zkill.FetchResult{}, err
	}
	return zkill.FetchResult{Stats: f.stats[id]}, nil
}

func (f *fakeActivity) CachedStats(_ context.Context, id int64) (model.ActivityStats, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.cached[id]
	return s, ok
}

func newFakes() (*fakeIdentities, *fakeActivity) {
	ids := &fakeIdentities{
		ids: map[string]int64{"vex": 1, "ada": 2, "quiet": 3, "titan pilot": 4, "broken": 5, "flaky": 6},
		profiles: map[int64]model.ProfileRecord{
			1: {ID: 1, Name: "Vex"},
			2: {ID: 2, Name: "Ada"},
			3: {ID: 3, Name: "Quiet"},
			4: {ID: 4, Name: "Titan Pilot"},
			6: {ID: 6, Name: "Flaky"},
		},
		cached:   map[int64]model.ProfileRecord{},
		failures: map[int64]error{5: fmt.Errorf("%w: 5: status 404", esi.ErrNotFound)},
	}
	act := &fakeActivity{
		stats: map[int64]model.ActivityStats{
			1: {ShipsDestroyed: 100, ShipsLost: 1},
			2: {ShipsDestroyed: 5, ShipsLost: 10},
			3: {},
			4: {
				ShipsDestroyed: 2000, ShipsLost: 10, SoloKills: 1000, DangerRatio: 90, ActivePvPKills: 60,
				TopShips: []model.ShipStats{{ShipTypeID: 11567, GroupID: scoring.GroupTitan, Kills: 12}},
			},
		},
		cached:   map[int64]model.ActivityStats{},
		failures: map[int64]error{6: fmt.Errorf("%w: 6: timeout", zkill.ErrFetch)},
	}
	return ids, act
}

func newService(ctx context.Context, ids service.Identities, act service.Activity, opts ...service.Option) (*service.Service, cache.Cache) {
	store, err := cache.NewMemoryStore(ctx)
	if err != nil {
		panic(err)
	}
	opts = append([]service.Option{service.WithDispatchInterval(time.Millisecond)}, opts...)
	svc := service.New(ids, act, store, opts...)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	return svc, store
}

func byName(records []model.PilotRecord) map[string]model.PilotRecord {
	out := make(map[string]model.PilotRecord, len(records))
	for _, r := range records {
		out[r.Profile.Name] = r
	}
	return out
}

func TestParseNames(t *testing.T) {
	Convey("Given pasted local chat text", t, func() {
		text := "  Vex \r\n\n\tAda\n   \nVex\n"

		Convey("Then lines are trimmed, blanks dropped and duplicates kept", func() {
			So(service.ParseNames(text), ShouldResemble, []string{"Vex", "Ada", "Vex"})
		})

		Convey("Then empty text yields no names", func() {
			So(service.ParseNames(" \n \n"), ShouldBeEmpty)
		})
	})
}

func TestLookup(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ids, act := newFakes()
		svc, store := newService(ctx, ids, act)
		defer func() { _ = svc.Stop(ctx) }()
		defer func() { _ = store.Close() }()

		Convey("When the input is blank", func() {
			res, err := svc.Lookup(ctx, "\n  \n")

			Convey("Then the result is empty and nothing upstream is called", func() {
				So(err, ShouldBeNil)
				So(res.LookupID, ShouldNotBeEmpty)
				So(res.Results, ShouldNotBeNil)
				So(res.Results, ShouldBeEmpty)
				So(ids.resolveCalls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When looking up a mixed list", func() {
			res, err := svc.Lookup(ctx, "vex\nAda\nNobody\nquiet\ntitan pilot\nbroken\nflaky\nvex")
			So(err, ShouldBeNil)
			records := byName(res.Results)

			Convey("Then there is exactly one record per name", func() {
				So(res.Results, ShouldHaveLength, 8)
			})

			Convey("Then records are ordered by tier rank", func() {
				for i := 1; i < len(res.Results); i++ {
					So(res.Results[i-1].RiskTier.Rank(), ShouldBeLessThanOrEqualTo, res.Results[i].RiskTier.Rank())
				}
				So(res.Results[0].Profile.Name, ShouldEqual, "Titan Pilot")
				So(res.Results[0].RiskTier, ShouldEqual, types.TierExtreme)
			})

			Convey("Then scoring and flags are applied", func() {
				So(records["Vex"].RiskTier, ShouldEqual, types.TierHigh)
				So(records["Titan Pilot"].Flags.Super, ShouldBeTrue)
				So(records["Titan Pilot"].Flags.Solo, ShouldBeTrue)
				So(records["Quiet"].RiskTier, ShouldEqual, types.TierUnknown)
				So(records["Quiet"].Activity, ShouldNotBeNil)
			})

			Convey("Then an unresolved name yields a placeholder", func() {
				r := records["Nobody"]
				So(r.Profile.ID, ShouldEqual, 0)
				So(r.Error, ShouldEqual, "character not found")
				So(r.RiskTier, ShouldEqual, types.TierUnknown)
				So(r.Activity, ShouldBeNil)
			})

			Convey("Then a profile failure short-circuits to a placeholder", func() {
				r := records["broken"]
				So(r.Profile.ID, ShouldEqual, 5)
				So(r.Error, ShouldContainSubstring, "character not found")
				So(r.RiskTier, ShouldEqual, types.TierUnknown)
				So(act.seen, ShouldNotContain, int64(5))
			})

			Convey("Then an activity failure leaves the record without stats", func() {
				r := records["Flaky"]
				So(r.Failed(), ShouldBeFalse)
				So(r.Activity, ShouldBeNil)
				So(r.RiskTier, ShouldEqual, types.TierUnknown)
				So(r.Flags.Any(), ShouldBeFalse)
			})

			Convey("Then counters reflect the lookup", func() {
				st := svc.Stats(ctx)
				So(st.Started, ShouldBeTrue)
				So(st.Lookups, ShouldEqual, 1)
				So(st.Pilots, ShouldEqual, 8)
				So(st.Dispatched, ShouldEqual, 7)
				So(st.CacheHits, ShouldEqual, 0)
				So(st.DispatchInterval, ShouldEqual, "1ms")
			})
		})

		Convey("When resolution fails", func() {
			ids.resolveErr = fmt.Errorf("%w: status 503", esi.ErrResolve)
			_, err := svc.Lookup(ctx, "vex\nada")

			Convey("Then the whole lookup fails", func() {
				So(errors.Is(err, esi.ErrResolve), ShouldBeTrue)
				So(act.calls.Load(), ShouldEqual, 0)
				So(svc.Stats(ctx).FailedLookups, ShouldEqual, 1)
			})
		})

		Convey("When too many names are given", func() {
			small, smallStore := newService(ctx, ids, act, service.WithMaxNames(2))
			defer func() { _ = small.Stop(ctx) }()
			defer func() { _ = smallStore.Close() }()
			_, err := small.Lookup(ctx, "a\nb\nc")

			Convey("Then the lookup is refused before resolution", func() {
				So(errors.Is(err, service.ErrTooManyNames), ShouldBeTrue)
				So(ids.resolveCalls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When both cache entries exist for a pilot", func() {
			ids.cached[1] = model.ProfileRecord{ID: 1, Name: "Vex"}
			act.cached[1] = model.ActivityStats{ShipsDestroyed: 100, ShipsLost: 1}

			var events []string
			var last model.Progress
			sink := service.SinkFunc(func(_ context.Context, event string, payload any) {
				events = append(events, event)
				if p, ok := payload.(model.Progress); ok {
					last = p
				}
			})
			res, err := svc.LookupStream(ctx, "vex\nada", sink)

			Convey("Then it is served without fetching and counted as a cache hit", func() {
				So(err, ShouldBeNil)
				So(res.Results, ShouldHaveLength, 2)
				So(ids.profileCalls.Load(), ShouldEqual, 1)
				So(act.seen, ShouldResemble, []int64{2})
				So(last, ShouldResemble, model.Progress{Current: 2, Total: 2, CacheHits: 1})
				So(svc.Stats(ctx).CacheHits, ShouldEqual, 1)
			})

			Convey("Then events open with started and close with done", func() {
				So(events[0], ShouldEqual, model.EventStarted)
				So(events[len(events)-1], ShouldEqual, model.EventDone)
				So(events, ShouldHaveLength, 6)
			})
		})

		Convey("When only the profile is cached", func() {
			ids.cached[1] = model.ProfileRecord{ID: 1, Name: "Vex"}
			_, err := svc.Lookup(ctx, "vex")

			Convey("Then the pilot is dispatched", func() {
				So(err, ShouldBeNil)
				So(act.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the cache is cleared", func() {
			So(store.Set(ctx, cache.ProfileKey(1), []byte(`{}`), 0, false), ShouldBeNil)
			So(svc.Stats(ctx).CacheEntries, ShouldEqual, 1)
			err := svc.ClearCache(ctx)

			Convey("Then the store is empty", func() {
				So(err, ShouldBeNil)
				So(store.Len(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestLookupStreamFailure(t *testing.T) {
	Convey("Given a service whose resolver fails", t, func() {
		ctx := context.Background()
		ids, act := newFakes()
		ids.resolveErr = fmt.Errorf("%w: boom", esi.ErrResolve)
		svc, store := newService(ctx, ids, act)
		defer func() { _ = svc.Stop(ctx) }()
		defer func() { _ = store.Close() }()

		var events []string
		var failure model.Failure
		sink := service.SinkFunc(func(_ context.Context, event string, payload any) {
			events = append(events, event)
			if f, ok := payload.(model.Failure); ok {
				failure = f
			}
		})
		res, err := svc.LookupStream(ctx, "vex", sink)

		Convey("Then an error event follows started", func() {
			So(err, ShouldNotBeNil)
			So(events, ShouldResemble, []string{model.EventStarted, model.EventError})
			So(failure.LookupID, ShouldEqual, res.LookupID)
			So(failure.Message, ShouldContainSubstring, "boom")
		})
	})
}

func TestLookupLifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		ctx := context.Background()
		ids, act := newFakes()
		store, err := cache.NewMemoryStore(ctx)
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()
		svc := service.New(ids, act, store)

		Convey("Then lookups are refused", func() {
			_, err := svc.Lookup(ctx, "vex")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})

	Convey("Given a slowly dispatching service", t, func() {
		ids, act := newFakes()
		svc, store := newService(context.Background(), ids, act, service.WithDispatchInterval(time.Hour))
		defer func() { _ = store.Close() }()

		Convey("When the caller gives up mid-lookup", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err := svc.Lookup(ctx, "vex\nada\nquiet")

			Convey("Then the lookup returns the context error", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(svc.Stats(context.Background()).FailedLookups, ShouldEqual, 1)
			})

			Convey("And stopping abandons the queued pilots", func() {
				sctx, scancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer scancel()
				_ = svc.Stop(sctx)
				So(svc.Stats(context.Background()).Started, ShouldBeFalse)
			})
		})
	})
}
