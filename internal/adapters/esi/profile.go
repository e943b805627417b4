package esi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eve-telescope/telescope-app/internal/adapters/cache"
	"github.com/eve-telescope/telescope-app/internal/adapters/upstream"
	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/pkg/logger"
	"github.com/eve-telescope/telescope-app/pkg/metrics"
)

type character struct {
	Name          string `json:"name"`
	CorporationID int64  `json:"corporation_id"`
	AllianceID    int64  `json:"alliance_id"`
}

type corporation struct {
	Name       string `json:"name"`
	Ticker     string `json:"ticker"`
	AllianceID int64  `json:"alliance_id"`
}

type alliance struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// FetchProfile returns the profile of character id, from cache when a live
// entry exists. A failed character request wraps ErrNotFound; failed
// corporation or alliance requests only leave those names empty.
func (c *Client) FetchProfile(ctx context.Context, id int64) (model.ProfileRecord, error) {
	key := cache.ProfileKey(id)
	log := c.logger.With(logger.Int64("character_id", id))

	if cached, ok := c.CachedProfile(ctx, id); ok {
		log.Debug(ctx, "profile cache hit")
		return cached, nil
	}

	url := fmt.Sprintf("%s/characters/%d/?%s", c.baseURL, id, datasource)
	char, resp, err := upstream.GetJSON[character](ctx, c.http, "characters", url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.ProfileRecord{}, ctxErr
		}
		log.Error(ctx, "character fetch failed", logger.Error(err))
		return model.ProfileRecord{}, fmt.Errorf("%w: %d: %w", ErrNotFound, id, err)
	}

	ttl := c.ttlFromExpires(resp.Header.Get("Expires"))

	profile := model.ProfileRecord{
		ID:            id,
		Name:          char.Name,
		CorporationID: char.CorporationID,
	}
	if profile.Name == "" {
		profile.Name = model.UnknownName
	}

	allianceID := char.AllianceID
	if char.CorporationID > 0 {
		corp, err := c.fetchCorporation(ctx, char.CorporationID)
		if err != nil {
			log.Warn(ctx, "corporation enrichment failed",
				logger.Int64("corporation_id", char.CorporationID), logger.Error(err))
		} else {
			profile.CorporationName = corp.Name
			profile.CorporationTicker = corp.Ticker
			allianceID = corp.AllianceID
		}
	}

	if allianceID > 0 {
		profile.AllianceID = allianceID
		ally, err := c.fetchAlliance(ctx, allianceID)
		if err != nil {
			log.Warn(ctx, "alliance enrichment failed",
				logger.Int64("alliance_id", allianceID), logger.Error(err))
		} else {
			profile.AllianceName = ally.Name
			profile.AllianceTicker = ally.Ticker
		}
	}

	if ttl <= 0 {
		log.Debug(ctx, "profile already expired upstream, not caching")
		return profile, nil
	}
	if err := cache.SetJSON(ctx, c.store, key, profile, ttl, false); err != nil {
		log.Warn(ctx, "failed to cache profile", logger.Error(err))
		metrics.RecordCacheWriteFailure(metrics.CacheKindProfile)
	} else {
		log.Debug(ctx, "cached profile", logger.Duration("ttl", ttl))
	}
	return profile, nil
}

// CachedProfile returns the cached profile of id without touching the network.
// Unreadable entries count as a miss.
func (c *Client) CachedProfile(ctx context.Context, id int64) (model.ProfileRecord, bool) {
	cached, ok, err := cache.GetJSON[model.ProfileRecord](ctx, c.store, cache.ProfileKey(id))
	if err != nil {
		c.logger.Debug(ctx, "profile cache read failed, treating as miss",
			logger.Int64("character_id", id), logger.Error(err))
	}
	if err != nil || !ok {
		metrics.RecordCacheRequest(metrics.CacheKindProfile, metrics.CacheMiss)
		return model.ProfileRecord{}, false
	}
	metrics.RecordCacheRequest(metrics.CacheKindProfile, metrics.CacheHit)
	return cached, true
}

func (c *Client) fetchCorporation(ctx context.Context, id int64) (*corporation, error) {
	url := fmt.Sprintf("%s/corporations/%d/?%s", c.baseURL, id, datasource)
	corp, _, err := upstream.GetJSON[corporation](ctx, c.http, "corporations", url)
	return corp, err
}

func (c *Client) fetchAlliance(ctx context.Context, id int64) (*alliance, error) {
	url := fmt.Sprintf("%s/alliances/%d/?%s", c.baseURL, id, datasource)
	ally, _, err := upstream.GetJSON[alliance](ctx, c.http, "alliances", url)
	return ally, err
}

// ttlFromExpires derives a TTL from an RFC 2822 expires header. A past
// timestamp yields zero; a missing or malformed header yields the default.
func (c *Client) ttlFromExpires(header string) time.Duration {
	if header == "" {
		return c.defaultTTL
	}
	expires, err := http.ParseTime(header)
	if err != nil {
		if expires, err = time.Parse(time.RFC1123Z, header); err != nil {
			return c.defaultTTL
		}
	}
	ttl := expires.Sub(c.now()).Truncate(time.Second)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// IsNotFound reports whether err is a per-character profile failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
