package worker

import (
	"time"

	"github.com/eve-telescope/telescope-app/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithName sets the dispatcher name for identification and logging.
func WithName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.name = name
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(logger logger.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithInterval sets the admission interval. Non-positive values disable throttling.
func WithInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		d.interval = interval
	}
}

// WithCapacity bounds the number of tasks waiting for admission.
func WithCapacity(capacity int) Option {
	return func(d *Dispatcher) {
		if capacity > 0 {
			d.capacity = capacity
		}
	}
}
