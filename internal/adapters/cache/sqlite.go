package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/eve-telescope/telescope-app/pkg/metrics"
)

// entryRow is one persisted cache entry. ExpiresAt is unix milliseconds,
// zero for entries without expiry.
type entryRow struct {
	Key        string `gorm:"column:cache_key;primaryKey;size:255"`
	Value      []byte
	Compressed bool
	ExpiresAt  int64 `gorm:"index"`
}

func (entryRow) TableName() string { return "cache_entries" }

// SQLiteStore is a Cache persisted in a SQLite database.
type SQLiteStore struct {
	settings
	codec  *codec
	db     *gorm.DB
	closed atomic.Bool

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Cache = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path, migrates the
// schema and starts the purge loop. Use ":memory:" for a throwaway store.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache db %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("cache db handle: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	sqlDB.SetMaxOpenConns(1)

	if path != ":memory:" {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("configure cache db: %w", err)
		}
	}
	if err := db.AutoMigrate(&entryRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	c, err := newCodec()
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	s := &SQLiteStore{
		settings: defaultSettings(),
		codec:    c,
		db:       db,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}

	s.startPurger(ctx)
	return s, nil
}

func (s *SQLiteStore) startPurger(ctx context.Context) {
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
				_, _ = s.Purge(ctx)
			}
		}
	}()
}

// Purge deletes expired rows and returns how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	res := s.db.WithContext(ctx).
		Where("expires_at > 0 AND expires_at <= ?", s.now().UnixMilli()).
		Delete(&entryRow{})
	if res.Error != nil {
		metrics.RecordErrorByComponent("cache", "purge")
		return 0, fmt.Errorf("purge cache: %w", res.Error)
	}
	metrics.UpdateCacheEntries(s.Len(ctx))
	return res.RowsAffected, nil
}

// Get implements Cache.Get.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}

	var row entryRow
	err := s.db.WithContext(ctx).
		Where("cache_key = ? AND (expires_at = 0 OR expires_at > ?)", key, s.now().UnixMilli()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	v, err := s.codec.decode(row.Value, row.Compressed)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set implements Cache.Set.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, compress bool) error {
	if s.closed.Load() {
		return ErrClosed
	}

	data, err := s.codec.encode(value, compress)
	if err != nil {
		return err
	}
	row := entryRow{
		Key:        key,
		Value:      data,
		Compressed: compress,
	}
	if exp := expiry(s.now(), ttl); !exp.IsZero() {
		row.ExpiresAt = exp.UnixMilli()
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Clear implements Cache.Clear.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&entryRow{}).Error; err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	metrics.UpdateCacheEntries(0)
	return nil
}

// Len implements Cache.Len.
func (s *SQLiteStore) Len(ctx context.Context) int {
	if s.closed.Load() {
		return 0
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&entryRow{}).
		Where("expires_at = 0 OR expires_at > ?", s.now().UnixMilli()).
		Count(&n).Error
	if err != nil {
		return 0
	}
	return int(n)
}

// Close stops the purge loop and closes the database.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopChan)
	s.wg.Wait()
	s.codec.close()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
