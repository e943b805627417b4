package worker

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate admits at most one unit of work per interval.
type Gate struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewGate creates a gate releasing one token every interval. The first
// token is available immediately. A non-positive interval disables throttling.
func NewGate(interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{limiter: rate.NewLimiter(limit, 1), interval: interval}
}

// Wait blocks until the next admission or until ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Interval returns the configured admission interval.
func (g *Gate) Interval() time.Duration {
	return g.interval
}
