package service

import (
	"time"

	"github.com/eve-telescope/telescope-app/internal/domain/scoring"
	"github.com/eve-telescope/telescope-app/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDispatchInterval sets how often one uncached pilot is released for fetching.
func WithDispatchInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dispatchInterval = d
		}
	}
}

// WithDispatchCapacity bounds the number of pilots waiting for dispatch across lookups.
func WithDispatchCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dispatchCapacity = n
		}
	}
}

// WithMaxNames caps the number of names accepted by one lookup.
func WithMaxNames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxNames = n
		}
	}
}

// WithEngine replaces the scoring engine.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}
