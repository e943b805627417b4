package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eve-telescope/telescope-app/internal/adapters/http/api"
	service "github.com/eve-telescope/telescope-app/internal/app"
	"github.com/eve-telescope/telescope-app/internal/config"
	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/internal/fakeupstream"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAPIIntegration(t *testing.T) {
	Convey("Given the API in front of a real lookup service", t, func() {
		up := fakeupstream.Default()
		defer up.Close()
		ctx := context.Background()

		cfg := config.New()
		cfg.ESIBaseURL = up.ESI.URL
		cfg.ZKillBaseURL = up.ZKill.URL
		cfg.DispatchIntervalMS = 1

		store, err := service.OpenCache(ctx, cfg)
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()
		svc := service.FromConfig(cfg, store)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := httptest.NewServer(api.NewServer(svc, svc).Router(ctx))
		defer srv.Close()

		Convey("When streaming a lookup over HTTP", func() {
			resp, err := http.Post(srv.URL+"/api/lookup/stream", "text/plain", strings.NewReader("Vex\nTitan Pilot\nNobody"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			events := parseSSE(string(body))

			Convey("Then every record arrives before the sorted done event", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(events[0].Name, ShouldEqual, model.EventStarted)
				last := events[len(events)-1]
				So(last.Name, ShouldEqual, model.EventDone)

				results := 0
				for _, e := range events {
					if e.Name == model.EventResult {
						results++
					}
				}
				So(results, ShouldEqual, 3)

				var done model.Done
				So(json.Unmarshal([]byte(last.Data), &done), ShouldBeNil)
				So(done.Results, ShouldHaveLength, 3)
				So(done.Results[0].Profile.Name, ShouldEqual, "Titan Pilot")
			})
		})

		Convey("When clearing the cache and reading stats", func() {
			resp, err := http.Post(srv.URL+"/api/lookup", "application/json", strings.NewReader(`{"names":"Vex"}`))
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/cache", nil)
			resp, err = http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			Convey("Then the cache is empty and counters moved", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
				st := svc.Stats(ctx)
				So(st.CacheEntries, ShouldEqual, 0)
				So(st.Lookups, ShouldEqual, 1)
			})
		})

		Convey("When resolution is down", func() {
			up.FailResolve(http.StatusBadGateway)
			resp, err := http.Post(srv.URL+"/api/lookup", "text/plain", strings.NewReader("Vex"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the API answers bad gateway", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
			})
		})
	})
}
