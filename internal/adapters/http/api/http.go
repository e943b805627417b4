// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	service "github.com/eve-telescope/telescope-app/internal/app"
	"github.com/eve-telescope/telescope-app/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the lookup service.
type Dependencies interface {
	Lookup(ctx context.Context, text string) (service.Result, error)
	LookupStream(ctx context.Context, text string, sink service.Sink) (service.Result, error)
	ClearCache(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	lookupHandler *LookupHandler
	cacheHandler  *CacheHandler

	corsOrigins []string
	logger      logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins enables CORS for the given origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{logger: logger.Get().Named("http")}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.lookupHandler = NewLookupHandler(deps, s.logger)
	s.cacheHandler = NewCacheHandler(deps, s.logger)
	return s
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	s.Register(ctx, r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(api chi.Router) {
		api.Post("/lookup", MetricsMiddleware(s.lookupHandler.HandleLookup, "lookup"))
		api.Post("/lookup/stream", MetricsMiddleware(s.lookupHandler.HandleLookupStream, "lookup_stream"))
		api.Delete("/cache", MetricsMiddleware(s.cacheHandler.HandleClear, "cache"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
