package cache

import (
	"context"
	"sync"
	"time"

	"github.com/eve-telescope/telescope-app/pkg/metrics"
)

type memEntry struct {
	data       []byte
	compressed bool
	expiresAt  time.Time // zero means no expiry
}

func (e memEntry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// MemoryStore is an in-process Cache.
type MemoryStore struct {
	settings
	codec *codec

	mu      sync.RWMutex
	entries map[string]memEntry
	closed  bool

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Cache = (*MemoryStore)(nil)

// NewMemoryStore constructs a memory store and starts its purge loop, which
// runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) (*MemoryStore, error) {
	s := &MemoryStore{
		settings: defaultSettings(),
		entries:  make(map[string]memEntry),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}

	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	s.codec = c

	s.startPurger(ctx)
	return s, nil
}

func (s *MemoryStore) startPurger(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.purgeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.purge()
			}
		}
	}()
}

// purge drops expired entries and publishes the live count.
func (s *MemoryStore) purge() int {
	now := s.now()
	s.mu.Lock()
	removed := 0
	for k, e := range s.entries {
		if !e.live(now) {
			delete(s.entries, k)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateCacheEntries(n)
	return removed
}

// Get implements Cache.Get.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	e, ok := s.entries[key]
	if !ok || !e.live(s.now()) {
		return nil, false, nil
	}
	v, err := s.codec.decode(e.data, e.compressed)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set implements Cache.Set.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration, compress bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	data, err := s.codec.encode(value, compress)
	if err != nil {
		return err
	}
	s.entries[key] = memEntry{
		data:       data,
		compressed: compress,
		expiresAt:  expiry(s.now(), ttl),
	}
	return nil
}

// Clear implements Cache.Clear.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.entries = make(map[string]memEntry)
	metrics.UpdateCacheEntries(0)
	return nil
}

// Len implements Cache.Len.
func (s *MemoryStore) Len(_ context.Context) int {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.live(now) {
			n++
		}
	}
	return n
}

// Close stops the purge loop. Further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.entries = nil
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.codec.close()
	return nil
}
