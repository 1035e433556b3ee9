// Package maintenance runs startup housekeeping on the asset cache.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pigeonflight/pkg/db"
	"pigeonflight/pkg/store"
)

// cacheNameStateKey records which cache generation the stored assets belong to.
const cacheNameStateKey = "asset_cache_name"

// DefaultMaxAge is how long a cached asset is kept before it is re-fetched.
const DefaultMaxAge = 30 * 24 * time.Hour

// Run evicts asset caches from earlier generations and prunes stale entries.
// Failures are logged, never returned, so startup always continues.
func Run(ctx context.Context, s store.Store, d *db.DB, cacheName string, maxAge time.Duration) {
	slog.Info("Starting database maintenance...")

	if n, err := evictOldGenerations(ctx, s, cacheName); err != nil {
		slog.Error("Cache eviction failed", "error", err)
	} else if n > 0 {
		slog.Info("Evicted old asset cache", "entries", n, "current", cacheName)
	}

	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if n, err := d.PruneCache(maxAge); err != nil {
		slog.Error("Cache pruning failed", "error", err)
	} else {
		slog.Info("Cache pruning completed", "removed", n)
	}
}

// evictOldGenerations deletes cached entries belonging to a previous cache
// name once the configured name changes.
func evictOldGenerations(ctx context.Context, s store.Store, cacheName string) (int, error) {
	prev, found := s.GetState(ctx, cacheNameStateKey)
	if found && prev == cacheName {
		return 0, nil
	}

	var evicted int
	if found && prev != "" {
		keys, err := s.ListCacheKeys(ctx, prev+":")
		if err != nil {
			return 0, fmt.Errorf("failed to list %s: %w", prev, err)
		}
		var stale []string
		for _, k := range keys {
			if !strings.HasPrefix(k, cacheName+":") {
				stale = append(stale, k)
			}
		}
		if err := s.DeleteCache(ctx, stale...); err != nil {
			return 0, fmt.Errorf("failed to delete %s: %w", prev, err)
		}
		evicted = len(stale)
	}

	if err := s.SetState(ctx, cacheNameStateKey, cacheName); err != nil {
		return evicted, fmt.Errorf("failed to record cache name: %w", err)
	}
	return evicted, nil
}
