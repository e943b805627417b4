package esi

import (
	"context"
	"fmt"
	"strings"

	"github.com/eve-telescope/telescope-app/pkg/logger"
)

type idEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type idsResponse struct {
	Characters []idEntry `json:"characters"`
}

// Resolve maps names to character ids in one request. The result is keyed
// by lower-cased name; names ESI does not know are absent and logged.
// Transport failures and non-success statuses wrap ErrResolve.
func (c *Client) Resolve(ctx context.Context, names []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(names))
	if len(names) == 0 {
		return ids, nil
	}

	unique := dedupeNames(names)
	c.logger.Debug(ctx, "resolving character names",
		logger.Int("count", len(names)),
		logger.Int("unique", len(unique)),
	)

	url := c.baseURL + "/universe/ids/?" + datasource
	resp, err := c.http.PostJSON(ctx, "universe_ids", url, unique)
	if err != nil {
		c.logger.Error(ctx, "esi resolve request failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}
	if err := resp.Err(); err != nil {
		c.logger.Error(ctx, "esi resolve returned error status", logger.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}

	var body idsResponse
	if err := resp.JSON(&body); err != nil {
		c.logger.Error(ctx, "esi resolve response malformed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w: %w", ErrResolve, ErrDecode, err)
	}

	for _, e := range body.Characters {
		ids[strings.ToLower(e.Name)] = e.ID
	}

	var unresolved []string
	for _, n := range unique {
		if _, ok := ids[strings.ToLower(n)]; !ok {
			unresolved = append(unresolved, n)
		}
	}
	if len(unresolved) > 0 {
		c.logger.Warn(ctx, "could not resolve characters",
			logger.Int("count", len(unresolved)),
			logger.Strings("names", unresolved),
		)
	}
	return ids, nil
}

// dedupeNames drops case-insensitive repeats, keeping the first spelling.
func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	unique := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, n)
	}
	return unique
}
