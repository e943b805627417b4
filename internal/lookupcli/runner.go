package lookupcli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/eve-telescope/telescope-app/internal/domain/model"
	"github.com/eve-telescope/telescope-app/pkg/logger"
)

// ErrNoNames is returned when the input holds no names.
var ErrNoNames = errors.New("no names given")

// Run reads names, looks them up against the service and renders the
// result to out. in is used when config.File is empty.
func Run(ctx context.Context, config *Config, in io.Reader, out io.Writer) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("cli")

	names, err := readNames(config.File, in)
	if err != nil {
		return stats, err
	}
	stats.Names = len(names)
	if len(names) == 0 {
		return stats, ErrNoNames
	}

	log.Info(ctx, "starting lookup",
		logger.String("baseURL", config.BaseURL),
		logger.Int("names", len(names)),
		logger.Bool("stream", config.Stream),
		logger.String("timeout", config.Timeout.String()))

	client := NewClient(config.BaseURL, config.Timeout)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	if config.ClearCache {
		if err := client.ClearCache(ctx); err != nil {
			return stats, fmt.Errorf("cache clear failed: %w", err)
		}
		log.Info(ctx, "service cache cleared")
	}

	var resp Response
	if config.Stream {
		resp, err = client.LookupStream(ctx, names, func(p model.Progress) {
			stats.CacheHits = p.CacheHits
			if !config.JSON {
				_, _ = fmt.Fprintf(out, "\rresolved %d/%d (cache hits: %d)", p.Current, p.Total, p.CacheHits)
			}
		})
		if !config.JSON {
			_, _ = fmt.Fprintln(out)
		}
	} else {
		resp, err = client.Lookup(ctx, names)
	}
	if err != nil {
		return stats, fmt.Errorf("lookup failed: %w", err)
	}

	stats.Results = len(resp.Results)
	var threats []string
	for _, r := range resp.Results {
		if r.Failed() {
			stats.Failed++
		}
		if r.RiskTier.IsThreat() {
			threats = append(threats, r.Profile.Name)
		}
	}
	stats.Threats = len(threats)

	if config.JSON {
		if err := RenderJSON(out, resp); err != nil {
			return stats, err
		}
	} else {
		RenderTable(out, resp.Results)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if len(threats) > 0 {
		log.Warn(ctx, "high threat pilots detected", logger.Strings("names", threats))
	}
	log.Info(ctx, "lookup completed",
		logger.String("lookup_id", resp.LookupID),
		logger.Int("results", stats.Results),
		logger.Int("failed", stats.Failed),
		logger.Int("cacheHits", stats.CacheHits),
		logger.String("duration", stats.Duration.String()))
	return stats, nil
}

// readNames reads one name per line from file, or from in when file is empty.
func readNames(file string, in io.Reader) ([]string, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open names file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	if in == nil {
		return nil, ErrNoNames
	}

	var names []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read names: %w", err)
	}
	return names, nil
}
