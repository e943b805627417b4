package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/eve-telescope/telescope-app/internal/config"
	"github.com/eve-telescope/telescope-app/internal/fakeupstream"
	"github.com/eve-telescope/telescope-app/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			t.Setenv("TELESCOPE_ADDR", ":8080")
			t.Setenv("TELESCOPE_DISPATCH_INTERVAL_MS", "25")
			t.Setenv("TELESCOPE_CACHE_DRIVER", "sqlite")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DispatchIntervalMS, convey.ShouldEqual, 25)
				convey.So(cfg.CacheDriver, convey.ShouldEqual, "sqlite")
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			t.Setenv("TELESCOPE_ADDR", "")
			_ = os.Unsetenv("TELESCOPE_CONFIG")

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestBuild(t *testing.T) {
	convey.Convey("Given fake upstream providers", t, func() {
		up := fakeupstream.Default()
		defer up.Close()
		ctx := context.Background()

		cfg := config.New()
		cfg.ESIBaseURL = up.ESI.URL
		cfg.ZKillBaseURL = up.ZKill.URL
		cfg.DispatchIntervalMS = 1
		cfg.CORSOrigins = []string{"https://eve-telescope.com"}

		convey.Convey("When the application is built", func() {
			a, err := build(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = a.close(ctx) }()

			srv := httptest.NewServer(a.handler)
			defer srv.Close()

			convey.Convey("Then the API and docs are mounted", func() {
				for _, path := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
					resp, err := http.Get(srv.URL + path)
					convey.So(err, convey.ShouldBeNil)
					_ = resp.Body.Close()
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("And a lookup runs end to end", func() {
				resp, err := http.Post(srv.URL+"/api/lookup", "text/plain", strings.NewReader("Vex\nNobody"))
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(up.ResolveCalls.Load(), convey.ShouldEqual, 1)
			})

			convey.Convey("And closing stops the service", func() {
				convey.So(a.close(ctx), convey.ShouldBeNil)
				convey.So(a.svc.Stats(ctx).Started, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the build context is cancelled after startup", func() {
			sigCtx, cancel := context.WithCancel(ctx)
			a, err := build(sigCtx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = a.close(ctx) }()
			cancel()

			srv := httptest.NewServer(a.handler)
			defer srv.Close()

			convey.Convey("Then queued fetches still run until close", func() {
				convey.So(a.base.Err(), convey.ShouldBeNil)
				convey.So(a.svc.Stats(ctx).Started, convey.ShouldBeTrue)

				resp, err := http.Post(srv.URL+"/api/lookup", "text/plain", strings.NewReader("Vex\nAda Lovelace"))
				convey.So(err, convey.ShouldBeNil)
				body, err := io.ReadAll(resp.Body)
				_ = resp.Body.Close()
				convey.So(err, convey.ShouldBeNil)
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(string(body), convey.ShouldNotContainSubstring, "lookup cancelled")
				convey.So(up.StatsCalls.Load(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the cache driver is unknown", func() {
			cfg.CacheDriver = "redis"
			a, err := build(ctx, cfg)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(a, convey.ShouldBeNil)
		})
	})
}
