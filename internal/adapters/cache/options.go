package cache

import "time"

const defaultPurgeInterval = 5 * time.Minute

// settings is shared by every store implementation.
type settings struct {
	now           func() time.Time
	purgeInterval time.Duration
}

func defaultSettings() settings {
	return settings{now: time.Now, purgeInterval: defaultPurgeInterval}
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPurgeInterval sets how often expired entries are removed.
func WithPurgeInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.purgeInterval = interval
		}
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
