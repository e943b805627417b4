package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eve-telescope/telescope-app/internal/adapters/cache"
	"github.com/eve-telescope/telescope-app/internal/adapters/http/api"
	"github.com/eve-telescope/telescope-app/internal/adapters/http/swagger"
	service "github.com/eve-telescope/telescope-app/internal/app"
	"github.com/eve-telescope/telescope-app/internal/config"
	"github.com/eve-telescope/telescope-app/pkg/logger"
	"github.com/eve-telescope/telescope-app/pkg/metrics"
	"github.com/eve-telescope/telescope-app/pkg/reporting"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

const appName = "telescope"

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(); err != nil {
		logger.Get().Error(context.Background(), "telescope exited", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	enabled, err := reporting.Init(reporting.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     config.Version,
		App:         appName,
	})
	if err != nil {
		log.Warn(ctx, "error reporting disabled", logger.Error(err))
	}
	defer reporting.Flush()
	defer reporting.Recover()
	log.Info(ctx, "error reporting", logger.Bool("enabled", enabled))

	metrics.StartSystemCollector(ctx)

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return a.base },
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("version", config.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := a.close(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// application holds the wired components of one server process.
type application struct {
	// base is not cancelled by shutdown signals.
	base    context.Context
	store   cache.Cache
	svc     *service.Service
	handler http.Handler
}

// build opens the cache, starts the lookup service and mounts every route.
// Cancelling ctx later does not stop the service; use close.
func build(ctx context.Context, cfg *config.Config) (*application, error) {
	base := context.WithoutCancel(ctx)
	store, err := service.OpenCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	svc := service.FromConfig(cfg, store, service.WithLogger(logger.Named("lookup")))
	if err := svc.Start(base); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to start service: %w", err)
	}

	router := api.NewServer(svc, svc, api.WithCORSOrigins(cfg.CORSOrigins)).Router(base)
	swagger.Register(base, router)

	return &application{base: base, store: store, svc: svc, handler: router}, nil
}

func (a *application) close(ctx context.Context) error {
	return errors.Join(a.svc.Stop(ctx), a.store.Close())
}
